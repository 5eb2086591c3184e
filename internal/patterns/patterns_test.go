package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/basinlabs/codescan/internal/model"
)

func TestUIComponentDetector_RequiresMultipleSignals(t *testing.T) {
	content := []byte(`
import React, { useState } from 'react';

function Widget() {
	const [x, setX] = useState(0);
	return (<div>{x}</div>);
}
`)
	symbols := &model.SymbolTable{Functions: []model.FunctionRecord{{Name: "Widget", StartLine: 4}}}

	patterns := (UIComponentDetector{}).Detect(symbols, content, "Widget.jsx")
	require.Len(t, patterns, 1)
	assert.Equal(t, "ui_component", patterns[0].PatternType)
	assert.GreaterOrEqual(t, len(patterns[0].Evidence), 2)
	assert.Greater(t, patterns[0].Confidence, 0.0)
}

func TestUIComponentDetector_PascalCaseAloneIsNotEnough(t *testing.T) {
	symbols := &model.SymbolTable{Functions: []model.FunctionRecord{{Name: "NewServer", StartLine: 1}}}
	patterns := (UIComponentDetector{}).Detect(symbols, []byte("func NewServer() {}"), "server.go")
	assert.Empty(t, patterns)
}

func TestHTTPEndpointDetector_FlaskDecorator(t *testing.T) {
	content := []byte("@app.route('/users')\ndef list_users():\n    pass\n")
	patterns := (HTTPEndpointDetector{}).Detect(&model.SymbolTable{}, content, "routes.py")
	require.Len(t, patterns, 1)
	assert.Equal(t, "http_endpoint", patterns[0].PatternType)
}

func TestHTTPEndpointDetector_NextAPIConvention(t *testing.T) {
	patterns := (HTTPEndpointDetector{}).Detect(&model.SymbolTable{}, []byte("export default function handler(req, res) {}"), "pages/api/users.js")
	require.Len(t, patterns, 1)
	assert.Contains(t, patterns[0].Evidence[0], "file-path convention")
}

func TestDataLayerDetector_ORMModel(t *testing.T) {
	symbols := &model.SymbolTable{Classes: []model.ClassRecord{{Name: "User", BaseClasses: []string{"models.Model"}, StartLine: 1}}}
	patterns := (DataLayerDetector{}).Detect(symbols, []byte("class User(models.Model):\n    pass\n"), "models.py")
	require.Len(t, patterns, 1)
	assert.Equal(t, "data_layer", patterns[0].PatternType)
}

func TestDataLayerDetector_Migration(t *testing.T) {
	content := []byte("func Up(tx *sql.Tx) error { return nil }\nfunc Down(tx *sql.Tx) error { return nil }\n")
	patterns := (DataLayerDetector{}).Detect(&model.SymbolTable{}, content, "migrations/0001_create_users.go")
	require.Len(t, patterns, 1)
}

func TestAuthDetector_MultipleSignals(t *testing.T) {
	content := []byte("jwt.decode(token)\nbcrypt.hashpw(password)\nAuthorization: Bearer x\n")
	patterns := (AuthDetector{}).Detect(&model.SymbolTable{}, content, "auth.py")
	require.Len(t, patterns, 1)
	assert.GreaterOrEqual(t, len(patterns[0].Evidence), 2)
}

func TestLanguageIdiomDetector_PythonIdioms(t *testing.T) {
	content := []byte("squares = [x * x for x in range(10)]\nwith open('f') as fh:\n    pass\nasync def go():\n    await something()\n")
	patterns := (LanguageIdiomDetector{}).Detect(&model.SymbolTable{}, content, "idioms.py")
	require.Len(t, patterns, 1)
	assert.GreaterOrEqual(t, len(patterns[0].Evidence), 3)
}

func TestRegistry_IsolatesDetectorPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)
	reg := NewRegistry(log, panickingDetector{}, &AuthDetector{})

	content := []byte("jwt.decode(token)\nbcrypt.hashpw(password)\n")
	out := reg.DetectFile(&model.SymbolTable{}, content, "f.py")

	require.Len(t, out, 1)
	assert.Equal(t, "auth", out[0].PatternType)
	assert.Equal(t, 1, logs.Len())
}

type panickingDetector struct{}

func (panickingDetector) Detect(*model.SymbolTable, []byte, string) []model.DetectedPattern {
	panic("boom")
}

func TestGlobalPatterns_RequiresMinimumFileCount(t *testing.T) {
	reg := NewRegistry(nil, DefaultDetectors()...)
	fileAnalyses := map[string]*model.FileAnalysis{
		"a.py": {Patterns: []model.DetectedPattern{{PatternType: "auth", Confidence: 0.8}}},
		"b.py": {Patterns: []model.DetectedPattern{{PatternType: "auth", Confidence: 0.6}}},
		"c.py": {Patterns: []model.DetectedPattern{{PatternType: "data_layer", Confidence: 0.4}}},
	}

	global := reg.GlobalPatterns(fileAnalyses)
	require.Len(t, global, 1)
	assert.Equal(t, "global_auth", global[0].PatternType)
	assert.InDelta(t, 0.7, global[0].Confidence, 1e-9)
	files, _ := global[0].Metadata["files"].([]string)
	assert.Len(t, files, 2)
}
