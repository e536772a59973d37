package eventlog

import (
	"context"
	"log/slog"
)

// SlogAdapter forwards events to an slog.Logger. Useful in development
// when events should show up on the console alongside other logs.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("stage", event.Stage.String()),
		slog.String("category", event.Category.String()),
	}
	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if event.MeshID != "" {
		attrs = append(attrs, slog.String("mesh_id", event.MeshID))
	}

	switch {
	case event.Run != nil:
		attrs = append(attrs, slog.String("state", event.Run.State.String()))
		if event.Run.State == RunStarted {
			attrs = append(attrs,
				slog.Int("triangles", event.Run.Triangles),
				slog.Int("degenerate", event.Run.Degenerate),
			)
		} else {
			attrs = append(attrs,
				slog.Int("planes", event.Run.Planes),
				slog.Int("cylinders", event.Run.Cylinders),
				slog.Int("classified", event.Run.Classified),
				slog.Duration("elapsed", event.Run.Elapsed),
			)
		}
	case event.Plane != nil:
		attrs = append(attrs,
			slog.String("feature_id", event.Plane.FeatureID),
			slog.Int("triangles", event.Plane.Triangles),
			slog.Float64("area", event.Plane.Area),
		)
	case event.Cylinder != nil:
		attrs = append(attrs,
			slog.String("feature_id", event.Cylinder.FeatureID),
			slog.Int("triangles", event.Cylinder.Triangles),
			slog.Float64("radius", event.Cylinder.Radius),
			slog.Float64("height", event.Cylinder.Height),
			slog.Float64("confidence", event.Cylinder.Confidence),
		)
	case event.Reject != nil:
		attrs = append(attrs,
			slog.String("reason", event.Reject.Reason.String()),
			slog.Int("triangles", event.Reject.Triangles),
			slog.Float64("measured", event.Reject.Measured),
			slog.Float64("limit", event.Reject.Limit),
		)
	case event.Cache != nil:
		attrs = append(attrs,
			slog.String("op", event.Cache.Op.String()),
			slog.Int("entries", event.Cache.Entries),
		)
	}
	if event.Error != nil {
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "detection event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
