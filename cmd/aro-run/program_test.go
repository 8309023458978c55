package main

import (
	"testing"

	"github.com/arolang/aro/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgramClassifiesSpecialNames(t *testing.T) {
	start := &program.AnalyzedFeatureSet{Name: "Application-Start"}
	success := &program.AnalyzedFeatureSet{Name: "Application-End: Success"}
	failure := &program.AnalyzedFeatureSet{Name: "Application-End: Error"}
	route := &program.AnalyzedFeatureSet{Name: "HTTP GET /orders"}
	handler := &program.AnalyzedFeatureSet{Name: "OrderPlaced Handler", Handler: &program.HandlerMetadata{EventType: "order.placed"}}

	p := NewProgram([]*program.AnalyzedFeatureSet{start, success, failure, route, handler})

	assert.Same(t, start, p.Start())
	require.Len(t, p.Handlers(), 1)
	assert.Same(t, handler, p.Handlers()[0])
}

func TestNewProgramClassifiesApplicationEndSuccess(t *testing.T) {
	success := &program.AnalyzedFeatureSet{Name: "Application-End: Success", BusinessActivity: "Bootstrap"}
	p := NewProgram([]*program.AnalyzedFeatureSet{success})

	assert.NotNil(t, p.endSuccess)
	assert.Nil(t, p.endError)
}
