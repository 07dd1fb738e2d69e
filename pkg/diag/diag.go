// Package diag renders operational snapshots of a running engine as
// Graphviz DOT, using github.com/goccy/go-graphviz the way the teacher's
// pkg/render/nodelink renders DAGs: a plain string builder producing DOT
// text, plus a thin wrapper to rasterize it.
package diag

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/handler"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Deferrals is the minimal read-only view diag needs into the engine's live
// deferral state, so this package never has to import pkg/engine.
type Deferrals interface {
	// Snapshot returns every currently-deferred tag and its deadline.
	Snapshot() map[tag.Tag]time.Time
}

// RoutesDOT renders r's tag -> endpoint map, including the fallback slot,
// as a DOT digraph. One node per registered tag plus, when a fallback was
// explicitly set, a synthetic "fallback" node; no edges, since routes don't
// reference each other.
func RoutesDOT[C corebackend.Client, S any](r *handler.Router[C, S]) string {
	tags := r.RegisteredTags()
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })

	var buf bytes.Buffer
	buf.WriteString("digraph routes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n\n")

	for _, t := range tags {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", t.String(), t.String())
	}
	if r.HasFallback() {
		buf.WriteString("  \"fallback\" [label=\"fallback\", style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// DeferralsDOT renders the currently-deferred tags and their deadlines
// relative to now, one node per tag labeled with the remaining duration.
func DeferralsDOT(d Deferrals) string {
	now := time.Now()
	snap := d.Snapshot()

	keys := make([]tag.Tag, 0, len(snap))
	for t := range snap {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var buf bytes.Buffer
	buf.WriteString("digraph deferrals {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=lightyellow];\n\n")

	for _, t := range keys {
		remaining := snap[t].Sub(now)
		fmt.Fprintf(&buf, "  %q [label=\"%s\\n%s\"];\n", t.String(), t.String(), remaining.Round(time.Millisecond))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG rasterizes a DOT string to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("diag: init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("diag: parse dot: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("diag: render: %w", err)
	}
	return buf.Bytes(), nil
}
