package port

import (
	"context"

	"vod-packager/ddd/domain/vo"
)

// SegmentEncoder invokes the external encoder for one rendition, producing a
// segmented playlist and its media segments inside workDir/<rendition name>/.
// The invocation must be awaited to completion; a nonzero exit is a hard failure.
type SegmentEncoder interface {
	EncodeRendition(ctx context.Context, inputPath, workDir string, spec vo.RenditionSpec) error
}
