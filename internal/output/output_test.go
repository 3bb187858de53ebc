package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/output"
	"github.com/tyemirov/seshmux/internal/types"
)

func sampleReport(testingHandle *testing.T) *types.ScanReport {
	testingHandle.Helper()
	index, buildError := extras.BuildIndex(testingHandle.TempDir(), []string{".env", "config/local/a.yaml", "config/b.yaml"}, extras.IndexOptions{})
	require.NoError(testingHandle, buildError)
	return &types.ScanReport{
		Repository:     "/repo",
		Branch:         "main",
		CandidateCount: 5,
		FilteredCount:  3,
		Buckets: []types.BucketOutput{
			{Bucket: "node_modules", Count: 2, Skipped: true, Locked: true},
			{Bucket: "target", Count: 1},
		},
		Tree: output.BuildTreeNodes(index),
	}
}

const rawReportExpected = "Repository: /repo\n" +
	"Branch: main\n" +
	"Summary: 5 candidates, 3 after skipping\n" +
	"Buckets:\n" +
	"  [skip] node_modules (2) locked\n" +
	"  [keep] target (1)\n" +
	"Extras:\n" +
	"[File] .env\n" +
	"config\n" +
	"├── [File] config/b.yaml\n" +
	"└── config/local\n" +
	"    └── [File] config/local/a.yaml\n"

func TestRawReportRenderer(testingHandle *testing.T) {
	var buffer bytes.Buffer
	renderer := output.NewRawReportRenderer(&buffer, false)
	require.NoError(testingHandle, renderer.Render(sampleReport(testingHandle)))
	require.NoError(testingHandle, renderer.Flush())
	require.Equal(testingHandle, rawReportExpected, buffer.String())
}

func TestBuildTreeNodesCountsFiles(testingHandle *testing.T) {
	nodes := sampleReport(testingHandle).Tree
	require.Len(testingHandle, nodes, 2)
	require.Equal(testingHandle, types.NodeTypeFile, nodes[0].Type)
	require.Equal(testingHandle, types.NodeTypeDirectory, nodes[1].Type)
	require.Equal(testingHandle, 2, nodes[1].TotalFiles)
}

func TestJSONReportRendererWritesArray(testingHandle *testing.T) {
	var buffer bytes.Buffer
	renderer, rendererError := output.NewReportRenderer(types.FormatJSON, &buffer)
	require.NoError(testingHandle, rendererError)
	require.NoError(testingHandle, renderer.Render(sampleReport(testingHandle)))
	require.NoError(testingHandle, renderer.Flush())

	var decoded []map[string]interface{}
	require.NoError(testingHandle, json.Unmarshal(buffer.Bytes(), &decoded))
	require.Len(testingHandle, decoded, 1)
	require.Equal(testingHandle, "/repo", decoded[0]["repository"])
	require.Len(testingHandle, decoded[0]["buckets"], 2)
}

func TestJSONReportRendererEmpty(testingHandle *testing.T) {
	var buffer bytes.Buffer
	renderer := output.NewJSONReportRenderer(&buffer)
	require.NoError(testingHandle, renderer.Flush())
	require.Equal(testingHandle, "[]\n", buffer.String())
}

func TestXMLReportRenderer(testingHandle *testing.T) {
	var buffer bytes.Buffer
	renderer, rendererError := output.NewReportRenderer(types.FormatXML, &buffer)
	require.NoError(testingHandle, rendererError)
	require.NoError(testingHandle, renderer.Render(sampleReport(testingHandle)))
	require.NoError(testingHandle, renderer.Flush())

	rendered := buffer.String()
	require.True(testingHandle, strings.HasPrefix(rendered, "<?xml"))
	require.Contains(testingHandle, rendered, `<scan repository="/repo" branch="main" candidates="5" filtered="3">`)
	require.Contains(testingHandle, rendered, `<bucket name="node_modules" count="2" skipped="true" locked="true"></bucket>`)
	require.Contains(testingHandle, rendered, `<node path="config/local/a.yaml" name="a.yaml" type="file"></node>`)
}

func TestNewReportRendererRejectsUnknownFormat(testingHandle *testing.T) {
	_, rendererError := output.NewReportRenderer("toon", &bytes.Buffer{})
	require.Error(testingHandle, rendererError)
}
