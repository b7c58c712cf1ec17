package cli

import (
	"context"
	"os"
	"strings"

	flowio "github.com/matzehuels/flowlens/pkg/io"
	"github.com/matzehuels/flowlens/pkg/workspace"
)

// refKind says where a flow reference points.
type refKind int

const (
	refFile refKind = iota
	refSample
	refStored
)

// parseRef classifies a reference. "sample:<name>" is a sample, an existing
// path is a file, anything else is a store id.
func parseRef(ref string) (refKind, string) {
	if name, ok := strings.CutPrefix(ref, samplePrefix); ok {
		return refSample, name
	}
	if _, err := os.Stat(ref); err == nil {
		return refFile, ref
	}
	return refStored, ref
}

// openRef makes ref the current flow of ws. Files are opened without being
// saved.
func openRef(ctx context.Context, ws *workspace.Workspace, ref string) (*workspace.Flow, error) {
	kind, value := parseRef(ref)
	switch kind {
	case refSample:
		return ws.OpenSample(ctx, value)
	case refFile:
		doc, err := flowio.ImportFile(value)
		if err != nil {
			return nil, err
		}
		return ws.OpenDocument(ctx, doc, flowio.BaseName(value))
	}
	return ws.Open(ctx, value)
}
