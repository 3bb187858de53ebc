// Package types defines the cross-package data structures used by the seshmux CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandScan = "scan"
	CommandCopy = "copy"
	CommandPick = "pick"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// TreeOutputNode represents one node of the extras index.
type TreeOutputNode struct {
	XMLName    xml.Name          `json:"-" xml:"node"`
	Path       string            `json:"path" xml:"path,attr"`
	Name       string            `json:"name" xml:"name,attr"`
	Type       string            `json:"type" xml:"type,attr"`
	Children   []*TreeOutputNode `json:"children,omitempty" xml:"node,omitempty"`
	TotalFiles int               `json:"totalFiles,omitempty" xml:"totalFiles,attr,omitempty"`
}

// BucketOutput is one flagged bucket and whether it was skipped.
type BucketOutput struct {
	Bucket  string `json:"bucket" xml:"name,attr"`
	Count   int    `json:"count" xml:"count,attr"`
	Skipped bool   `json:"skipped" xml:"skipped,attr"`
	Locked  bool   `json:"locked,omitempty" xml:"locked,attr,omitempty"`
}

// ScanReport is the result of running the extras pipeline against one repository.
type ScanReport struct {
	XMLName        xml.Name          `json:"-" xml:"scan"`
	Repository     string            `json:"repository" xml:"repository,attr"`
	Branch         string            `json:"branch,omitempty" xml:"branch,attr,omitempty"`
	CandidateCount int               `json:"candidates" xml:"candidates,attr"`
	FilteredCount  int               `json:"filtered" xml:"filtered,attr"`
	Buckets        []BucketOutput    `json:"buckets" xml:"buckets>bucket"`
	Selected       []string          `json:"selected,omitempty" xml:"selected>path,omitempty"`
	Tree           []*TreeOutputNode `json:"tree,omitempty" xml:"tree>node,omitempty"`
}

// CopyReport summarizes a materialized selection.
type CopyReport struct {
	Repository  string   `json:"repository"`
	Destination string   `json:"destination"`
	Selected    []string `json:"selected"`
}
