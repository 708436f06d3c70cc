// Package benchmarks measures executor and checkpoint overhead with
// workflow shapes taken from the recruiting graphs: linear pipelines,
// evaluator fan-outs, and gated runs.
package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/talentops/hiregraph/pkg/hiregraph"
	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
)

// PipelineState mimics a drafting run's payload size.
type PipelineState struct {
	Stage    int
	Document string
}

func advance(ctx hiregraph.Context, s PipelineState) (PipelineState, error) {
	s.Stage++
	return s, nil
}

func buildPipeline(nodes int) *hiregraph.CompiledGraph[PipelineState] {
	g := hiregraph.NewGraph[PipelineState]()
	for i := 0; i < nodes; i++ {
		g.AddNode(nodeID(i), advance)
		if i > 0 {
			g.AddEdge(nodeID(i-1), nodeID(i))
		}
	}
	g.AddEdge(nodeID(nodes-1), hiregraph.END)
	g.SetEntry(nodeID(0))

	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func nodeID(i int) string {
	return fmt.Sprintf("stage_%d", i)
}

func BenchmarkCompile_Pipeline20(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := hiregraph.NewGraph[PipelineState]()
		for j := 0; j < 20; j++ {
			g.AddNode(nodeID(j), advance)
			if j > 0 {
				g.AddEdge(nodeID(j-1), nodeID(j))
			}
		}
		g.AddEdge(nodeID(19), hiregraph.END)
		g.SetEntry(nodeID(0))
		if _, err := g.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_Pipeline5(b *testing.B) {
	compiled := buildPipeline(5)
	ctx := hiregraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := compiled.Run(ctx, PipelineState{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_Pipeline50(b *testing.B) {
	compiled := buildPipeline(50)
	ctx := hiregraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := compiled.Run(ctx, PipelineState{}); err != nil {
			b.Fatal(err)
		}
	}
}

// FanState mirrors the screening state's clone/merge shape.
type FanState struct {
	Results []string
}

func (s FanState) Clone(branchID string) FanState {
	clone := s
	clone.Results = nil
	return clone
}

func (s FanState) Merge(branches map[string]FanState) FanState {
	merged := s
	for _, branch := range branches {
		merged.Results = append(merged.Results, branch.Results...)
	}
	return merged
}

func BenchmarkRun_FanOut4(b *testing.B) {
	g := hiregraph.NewGraph[FanState]().
		AddNode("dispatch", func(ctx hiregraph.Context, s FanState) (FanState, error) {
			return s, nil
		}).
		AddNode("collect", func(ctx hiregraph.Context, s FanState) (FanState, error) {
			return s, nil
		})
	for i := 0; i < 4; i++ {
		branch := fmt.Sprintf("eval_%d", i)
		g.AddNode(branch, func(ctx hiregraph.Context, s FanState) (FanState, error) {
			s.Results = append(s.Results, branch)
			return s, nil
		})
		g.AddEdge("dispatch", branch)
		g.AddEdge(branch, "collect")
	}
	g.AddEdge("collect", hiregraph.END)
	g.SetEntry("dispatch")

	compiled, err := g.Compile()
	if err != nil {
		b.Fatal(err)
	}

	ctx := hiregraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := compiled.Run(ctx, FanState{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_GateBypass(b *testing.B) {
	compiled, err := hiregraph.NewGraph[PipelineState]().
		AddNode("work", advance).
		AddGate("approve", hiregraph.Gate[PipelineState]{
			Bypass: func(ctx hiregraph.Context, s PipelineState) bool { return true },
		}).
		AddEdge("work", "approve").
		AddEdge("approve", hiregraph.END).
		SetEntry("work").
		Compile()
	if err != nil {
		b.Fatal(err)
	}

	ctx := hiregraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := compiled.Run(ctx, PipelineState{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_Pipeline5_WithCheckpoints(b *testing.B) {
	compiled := buildPipeline(5)
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	ctx := hiregraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runID := fmt.Sprintf("bench-%d", i)
		if _, err := compiled.Run(ctx, PipelineState{},
			hiregraph.WithCheckpointStore(store),
			hiregraph.WithRunID(runID)); err != nil {
			b.Fatal(err)
		}
	}
}
