// Package bookrec 是一个图书推荐引擎（Book Recommendation Engine）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - 双路召回: 内容路径（偏好分类）+ 协同路径（皮尔逊相似邻域），Blend 归一混合
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - Node 可扩展: 自定义 Node 即可插拔扩展召回/过滤/重排逻辑
package bookrec

import "github.com/Elyon-code/book-recommendation-engine/pipeline"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
