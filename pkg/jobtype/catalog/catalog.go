// Package catalog assembles the default set of job-type classes.
package catalog

import (
	"maps"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/server"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/standard"
)

// Classes returns every built-in, standard and server class under its
// default name.
func Classes() map[string]*jobtype.Class {
	classes := standard.Classes()
	maps.Copy(classes, server.Classes())
	return classes
}

// NewRegistry returns a registry initialised with Classes and backend.
func NewRegistry(backend jobtype.Backend, opts ...jobtype.Option) (*jobtype.Registry, error) {
	reg := jobtype.NewRegistry(opts...)
	if err := reg.Register(Classes(), backend); err != nil {
		return nil, err
	}
	return reg, nil
}
