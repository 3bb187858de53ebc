// Package output renders extras scan reports as raw text, JSON, or XML.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader      = xml.Header
	xmlRootElement = "scans"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	repositoryLineFormat = "Repository: %s\n"
	branchLineFormat     = "Branch: %s\n"
	summaryLineFormat    = "Summary: %d %s, %d after skipping\n"
	bucketsHeader        = "Buckets:"
	noBucketsLine        = "  (none)"
	bucketLineFormat     = "  %s %s (%d)%s\n"
	lockedSuffix         = " locked"
	skipLabel            = "[skip]"
	keepLabel            = "[keep]"
	treeHeader           = "Extras:"
	fileLineFormat       = "%s[File] %s\n"
	directoryLineFormat  = "%s%s\n"
)

// BuildTreeNodes converts the index into output nodes, one per root.
func BuildTreeNodes(index *extras.Index) []*types.TreeOutputNode {
	if index == nil {
		return nil
	}
	var nodes []*types.TreeOutputNode
	for _, rootKey := range index.Roots() {
		if node := buildTreeNode(index, rootKey); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func buildTreeNode(index *extras.Index, key string) *types.TreeOutputNode {
	indexNode, found := index.Node(key)
	if !found {
		return nil
	}
	if !indexNode.IsDir {
		return &types.TreeOutputNode{Path: indexNode.Key, Name: indexNode.Label, Type: types.NodeTypeFile}
	}
	directoryNode := &types.TreeOutputNode{Path: indexNode.Key, Name: indexNode.Label, Type: types.NodeTypeDirectory}
	for _, childKey := range indexNode.Children {
		childNode := buildTreeNode(index, childKey)
		if childNode == nil {
			continue
		}
		if childNode.Type == types.NodeTypeFile {
			directoryNode.TotalFiles++
		} else {
			directoryNode.TotalFiles += childNode.TotalFiles
		}
		directoryNode.Children = append(directoryNode.Children, childNode)
	}
	return directoryNode
}

type rawReportRenderer struct {
	stdout     io.Writer
	skipColor  *color.Color
	keepColor  *color.Color
	titleColor *color.Color
	rendered   int
}

// NewRawReportRenderer renders human-readable reports, colored when colorize is set.
func NewRawReportRenderer(stdout io.Writer, colorize bool) ReportRenderer {
	renderer := &rawReportRenderer{
		stdout:     stdout,
		skipColor:  color.New(color.FgYellow),
		keepColor:  color.New(color.FgGreen),
		titleColor: color.New(color.Bold),
	}
	for _, colorizer := range []*color.Color{renderer.skipColor, renderer.keepColor, renderer.titleColor} {
		if colorize {
			colorizer.EnableColor()
		} else {
			colorizer.DisableColor()
		}
	}
	return renderer
}

func (renderer *rawReportRenderer) Render(report *types.ScanReport) error {
	if report == nil || renderer.stdout == nil {
		return nil
	}
	var buffer bytes.Buffer
	if renderer.rendered > 0 {
		buffer.WriteString("\n")
	}
	renderer.rendered++

	buffer.WriteString(renderer.titleColor.Sprintf(repositoryLineFormat, report.Repository))
	if report.Branch != "" {
		fmt.Fprintf(&buffer, branchLineFormat, report.Branch)
	}
	label := "candidates"
	if report.CandidateCount == 1 {
		label = "candidate"
	}
	fmt.Fprintf(&buffer, summaryLineFormat, report.CandidateCount, label, report.FilteredCount)

	buffer.WriteString(bucketsHeader + "\n")
	if len(report.Buckets) == 0 {
		buffer.WriteString(noBucketsLine + "\n")
	}
	for _, bucket := range report.Buckets {
		statusLabel := renderer.keepColor.Sprint(keepLabel)
		if bucket.Skipped {
			statusLabel = renderer.skipColor.Sprint(skipLabel)
		}
		suffix := ""
		if bucket.Locked {
			suffix = lockedSuffix
		}
		fmt.Fprintf(&buffer, bucketLineFormat, statusLabel, bucket.Bucket, bucket.Count, suffix)
	}

	if len(report.Tree) > 0 {
		buffer.WriteString(treeHeader + "\n")
		for _, node := range report.Tree {
			WriteTreeRaw(&buffer, node)
		}
	}
	_, writeError := renderer.stdout.Write(buffer.Bytes())
	return writeError
}

func (renderer *rawReportRenderer) Flush() error {
	return nil
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func renderTreeNode(writer io.Writer, node *types.TreeOutputNode, prefix string, isRoot bool, isLast bool) {
	if node == nil {
		return
	}
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	if node.Type == types.NodeTypeFile {
		fmt.Fprintf(writer, fileLineFormat, linePrefix, node.Path)
		return
	}
	fmt.Fprintf(writer, directoryLineFormat, linePrefix, node.Path)
	for index, child := range node.Children {
		renderTreeNode(writer, child, childPrefix, false, index == len(node.Children)-1)
	}
}

// WriteTreeRaw renders a tree to the provided writer.
func WriteTreeRaw(writer io.Writer, node *types.TreeOutputNode) {
	if node == nil {
		return
	}
	renderTreeNode(writer, node, "", true, true)
}

type jsonReportRenderer struct {
	stdout  io.Writer
	reports []*types.ScanReport
}

// NewJSONReportRenderer writes every rendered report as one JSON array on Flush.
func NewJSONReportRenderer(stdout io.Writer) ReportRenderer {
	return &jsonReportRenderer{stdout: stdout}
}

func (renderer *jsonReportRenderer) Render(report *types.ScanReport) error {
	if report != nil {
		renderer.reports = append(renderer.reports, report)
	}
	return nil
}

func (renderer *jsonReportRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	reports := renderer.reports
	if reports == nil {
		reports = []*types.ScanReport{}
	}
	encoded, encodeError := json.MarshalIndent(reports, indentPrefix, indentSpacer)
	if encodeError != nil {
		return encodeError
	}
	_, writeError := fmt.Fprintln(renderer.stdout, string(encoded))
	return writeError
}

type xmlReportRenderer struct {
	stdout  io.Writer
	reports []*types.ScanReport
}

// NewXMLReportRenderer writes every rendered report inside one <scans> document on Flush.
func NewXMLReportRenderer(stdout io.Writer) ReportRenderer {
	return &xmlReportRenderer{stdout: stdout}
}

func (renderer *xmlReportRenderer) Render(report *types.ScanReport) error {
	if report != nil {
		renderer.reports = append(renderer.reports, report)
	}
	return nil
}

func (renderer *xmlReportRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	wrapper := struct {
		XMLName xml.Name            `xml:""`
		Reports []*types.ScanReport `xml:"scan"`
	}{
		XMLName: xml.Name{Local: xmlRootElement},
		Reports: renderer.reports,
	}
	encoded, encodeError := xml.MarshalIndent(wrapper, indentPrefix, indentSpacer)
	if encodeError != nil {
		return encodeError
	}
	_, writeError := fmt.Fprintln(renderer.stdout, xmlHeader+string(encoded))
	return writeError
}
