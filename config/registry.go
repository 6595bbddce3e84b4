package config

import (
	"fmt"

	"github.com/Elyon-code/book-recommendation-engine/pipeline"
)

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已在 factory 注册；
// 若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config, factory *pipeline.NodeFactory) error {
	if cfg == nil || factory == nil {
		return nil
	}
	supported := factory.Types()
	known := make(map[string]struct{}, len(supported))
	for _, t := range supported {
		known[t] = struct{}{}
	}
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if _, ok := known[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, supported)
		}
	}
	return nil
}

// BuildFromYAML 是配置驱动的一站式入口：读取 YAML、校验、构建 Pipeline。
func BuildFromYAML(path string, deps Deps) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		return nil, err
	}
	factory := Factory(deps)
	if err := ValidatePipelineConfig(cfg, factory); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(factory)
}
