package server

import (
	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/standard"
)

// DomainInstance is a row of the domain table.
type DomainInstance struct {
	PK          int64  `json:"pk,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FrameworkInstance is a row of the framework table.
type FrameworkInstance struct {
	PK      int64  `json:"pk,omitempty"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HardwareInstance describes a generation of GPU hardware.
type HardwareInstance struct {
	PK                   int64   `json:"pk,omitempty"`
	Generation           string  `json:"generation"`
	MinComputeCapability float64 `json:"min_compute_capability"`
	MaxComputeCapability float64 `json:"max_compute_capability"`
}

// CUDAVersionInstance describes a CUDA release.
type CUDAVersionInstance struct {
	PK               int64   `json:"pk,omitempty"`
	Version          float64 `json:"version"`
	FullVersion      string  `json:"full_version"`
	MinDriverVersion string  `json:"min_driver_version"`
}

// DockerImageInstance is a worker image able to run jobs for a domain and
// framework.
type DockerImageInstance struct {
	PK                    int64             `json:"pk,omitempty"`
	Name                  string            `json:"name"`
	Version               string            `json:"version"`
	URL                   string            `json:"url"`
	RegistryURL           string            `json:"registry_url,omitempty"`
	RegistryUsername      *string           `json:"registry_username,omitempty"`
	RegistryPassword      *string           `json:"registry_password,omitempty"`
	CUDAVersion           string            `json:"cuda_version,omitempty"`
	Domain                DomainInstance    `json:"domain"`
	Framework             FrameworkInstance `json:"framework"`
	MinHardwareGeneration string            `json:"min_hardware_generation,omitempty"`
	CPU                   bool              `json:"cpu"`
}

// PretrainedModelInstance is a model published for fine-tuning.
type PretrainedModelInstance struct {
	PK          int64             `json:"pk,omitempty"`
	URL         string            `json:"url"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Framework   FrameworkInstance `json:"framework"`
	Domain      DomainInstance    `json:"domain"`
	Licence     string            `json:"licence,omitempty"`
	Data        bool              `json:"data"`
	Metadata    string            `json:"metadata,omitempty"`
}

var (
	domainSchema = objectSchema(
		map[string]jobtype.Schema{"name": stringSchema},
		map[string]jobtype.Schema{"pk": pkSchema, "description": stringSchema},
	)

	frameworkSchema = objectSchema(
		map[string]jobtype.Schema{
			"name":    jobtype.StringSchema(32),
			"version": jobtype.StringSchema(32),
		},
		map[string]jobtype.Schema{"pk": pkSchema},
	)

	hardwareSchema = objectSchema(
		map[string]jobtype.Schema{
			"generation":             stringSchema,
			"min_compute_capability": numberSchema,
			"max_compute_capability": numberSchema,
		},
		map[string]jobtype.Schema{"pk": pkSchema},
	)

	cudaSchema = objectSchema(
		map[string]jobtype.Schema{
			"version":            numberSchema,
			"full_version":       jobtype.StringSchema(16),
			"min_driver_version": jobtype.StringSchema(16),
		},
		map[string]jobtype.Schema{"pk": pkSchema},
	)

	dockerImageSchema = objectSchema(
		map[string]jobtype.Schema{
			"name":      stringSchema,
			"version":   stringSchema,
			"url":       stringSchema,
			"domain":    domainSchema,
			"framework": frameworkSchema,
		},
		map[string]jobtype.Schema{
			"pk":                      pkSchema,
			"registry_url":            stringSchema,
			"registry_username":       jobtype.Schema{"type": []any{"string", "null"}},
			"registry_password":       jobtype.Schema{"type": []any{"string", "null"}},
			"cuda_version":            stringSchema,
			"min_hardware_generation": stringSchema,
			"cpu":                     boolSchema,
		},
	)

	pretrainedModelSchema = objectSchema(
		map[string]jobtype.Schema{
			"url":       stringSchema,
			"name":      stringSchema,
			"domain":    domainSchema,
			"framework": frameworkSchema,
		},
		map[string]jobtype.Schema{
			"pk":          pkSchema,
			"description": stringSchema,
			"licence":     stringSchema,
			"data":        boolSchema,
			"metadata":    stringSchema,
		},
	)
)

// Table names.
const (
	DomainTable          = "DataDomain"
	FrameworkTable       = "Framework"
	HardwareTable        = "hardware"
	CUDATable            = "cuda"
	DockerTable          = "DockerImage"
	PretrainedModelTable = "pretrained-models"
	DatasetTableSuffix   = "Dataset"
)

var (
	// Domain<Name> is a data domain such as 'Image Classification'.
	Domain = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "Domain",
		Parent: jobtype.NamedServerResident,
		Params: []jobtype.Bound{jobtype.LiteralOf(jobtype.KindString)},
		Behaviour: namedRecord[DomainInstance]{
			record: record[DomainInstance]{
				table:  fixedTable(DomainTable),
				fields: []string{"name"},
				schema: domainSchema,
			},
			nameField: "name",
		},
	})

	// Framework<Name, Version> is a machine-learning framework release.
	Framework = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "Framework",
		Parent: jobtype.NamedServerResident,
		Params: []jobtype.Bound{
			jobtype.LiteralOf(jobtype.KindString),
			jobtype.LiteralOf(jobtype.KindString),
		},
		Behaviour: namedRecord[FrameworkInstance]{
			record: record[FrameworkInstance]{
				table:  fixedTable(FrameworkTable),
				fields: []string{"name", "version"},
				schema: frameworkSchema,
			},
			nameField: "name",
		},
	})

	Hardware = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "Hardware",
		Parent: jobtype.NamedServerResident,
		Behaviour: namedRecord[HardwareInstance]{
			record: record[HardwareInstance]{
				table:  fixedTable(HardwareTable),
				schema: hardwareSchema,
			},
			nameField: "generation",
		},
	})

	CUDAVersion = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "CUDAVersion",
		Parent: jobtype.NamedServerResident,
		Behaviour: namedRecord[CUDAVersionInstance]{
			record: record[CUDAVersionInstance]{
				table:  fixedTable(CUDATable),
				schema: cudaSchema,
			},
			nameField: "full_version",
		},
	})

	// DockerImage<Domain, Framework> is an image whose domain and framework
	// match the type arguments.
	DockerImage = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "DockerImage",
		Parent: jobtype.NamedServerResident,
		Params: []jobtype.Bound{jobtype.OfClass(Domain), jobtype.OfClass(Framework)},
		Behaviour: namedRecord[DockerImageInstance]{
			record: record[DockerImageInstance]{
				table:  fixedTable(DockerTable),
				fields: []string{"domain", "framework"},
				schema: dockerImageSchema,
			},
			nameField: "name",
		},
	})

	PretrainedModel = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "PretrainedModel",
		Parent: jobtype.NamedServerResident,
		Params: []jobtype.Bound{jobtype.OfClass(Domain), jobtype.OfClass(Framework)},
		Behaviour: namedRecord[PretrainedModelInstance]{
			record: record[PretrainedModelInstance]{
				table:  fixedTable(PretrainedModelTable),
				fields: []string{"domain", "framework"},
				schema: pretrainedModelSchema,
			},
			nameField: "name",
		},
	})

	// Dataset<Domain> rows live in a per-domain table and pass through as
	// plain objects.
	Dataset = jobtype.MustDefine(jobtype.ClassSpec{
		Name:   "Dataset",
		Parent: jobtype.ServerResident,
		Params: []jobtype.Bound{jobtype.OfClass(Domain)},
		Behaviour: record[map[string]any]{
			table:  datasetTable,
			schema: jobtype.TypeSchema("object"),
		},
	})

	// Model<Domain, Framework> is a trained model file.
	Model = jobtype.MustDefine(jobtype.ClassSpec{
		Name:      "Model",
		Params:    []jobtype.Bound{jobtype.OfClass(Domain), jobtype.OfClass(Framework)},
		Behaviour: standard.BinaryOnly{},
	})
)

// datasetTable is "<domain name>Dataset", or plain "Dataset" when the
// domain is unconstrained.
func datasetTable(t *jobtype.Type) string {
	domain, ok := t.TypeArg(0)
	if !ok {
		return DatasetTableSuffix
	}
	name, ok := domain.LiteralArg(0)
	if !ok {
		return DatasetTableSuffix
	}
	return name.Value().(string) + DatasetTableSuffix
}

// Classes returns the server classes under their default names.
func Classes() map[string]*jobtype.Class {
	return map[string]*jobtype.Class{
		"Domain":          Domain,
		"Framework":       Framework,
		"Hardware":        Hardware,
		"CUDAVersion":     CUDAVersion,
		"DockerImage":     DockerImage,
		"PretrainedModel": PretrainedModel,
		"Dataset":         Dataset,
		"Model":           Model,
	}
}
