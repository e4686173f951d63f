package domain

// SnapshotVersion is the export format version written by Export.
const SnapshotVersion = "1.0"

// CanvasSnapshot is the exported form of one canvas.
type CanvasSnapshot struct {
	Items         []GridItem `json:"items"`
	ZIndexCounter int        `json:"zIndexCounter,omitempty"`
}

// Snapshot is the versioned export format. It carries everything needed to
// rebuild a registry with a single bulk replace.
type Snapshot struct {
	Version     string                    `json:"version"`
	Canvases    map[string]CanvasSnapshot `json:"canvases"`
	CanvasOrder []string                  `json:"canvasOrder,omitempty"`
	Viewport    Viewport                  `json:"viewport"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
}
