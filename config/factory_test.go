package config

import (
	"context"
	"testing"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/recall"
	"github.com/Elyon-code/book-recommendation-engine/store"
)

const pipelineYAML = `
pipeline:
  name: book_rec
  nodes:
    - type: recall.fanout
      config:
        merge_strategy: union
        timeout: 2
        sources:
          - type: genre
            top_genres: 2
            top_k: 5
          - type: neighborhood
            threshold: 0.3
            top_k: 5
    - type: filter
      config:
        filters:
          - type: rated
    - type: rerank.blend
      config:
        weights:
          neighborhood: 1.2
    - type: rerank.topn
      config:
        n: 10
`

func testDeps(t *testing.T) Deps {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { ms.Close() })
	return Deps{
		Ratings: recall.NewStoreRatingAdapter(ms, "test"),
		Cache:   ms,
	}
}

func TestFactoryBuildsConfiguredPipeline(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(pipelineYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	factory := Factory(testDeps(t))
	if err := ValidatePipelineConfig(cfg, factory); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}

	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("BuildPipeline() = %d nodes, want 4", len(p.Nodes))
	}

	wantKinds := []pipeline.Kind{
		pipeline.KindRecall,
		pipeline.KindFilter,
		pipeline.KindReRank,
		pipeline.KindReRank,
	}
	for i, node := range p.Nodes {
		if node.Kind() != wantKinds[i] {
			t.Errorf("node[%d].Kind() = %v, want %v", i, node.Kind(), wantKinds[i])
		}
	}

	// 空数据也应能跑通整条链路
	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Run() = %d items on empty data, want 0", len(items))
	}
}

func TestValidatePipelineConfigRejectsUnknownType(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: bad
  nodes:
    - type: rank.xgboost
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	factory := Factory(testDeps(t))
	if err := ValidatePipelineConfig(cfg, factory); err == nil {
		t.Error("ValidatePipelineConfig() error = nil, want unsupported node type")
	}
}

func TestFactoryRejectsUnknownSource(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: bad
  nodes:
    - type: recall.fanout
      config:
        sources:
          - type: two_tower
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	factory := Factory(testDeps(t))
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Error("BuildPipeline() error = nil, want unknown source type")
	}
}
