// Package tools builds the optional agent tools requested by a review job.
package tools

import "encoding/json"

// Configuration selects the optional tools for one review.
type Configuration struct {
	KnowledgeBase   []KnowledgeBase `json:"knowledgeBase,omitempty"`
	CodeInterpreter bool            `json:"codeInterpreter,omitempty"`
	MCPConfig       json.RawMessage `json:"mcpConfig,omitempty"`
}

// KnowledgeBase names a knowledge base and optionally restricts it to
// specific data sources.
type KnowledgeBase struct {
	KnowledgeBaseID string   `json:"knowledgeBaseId"`
	DataSourceIDs   []string `json:"dataSourceIds,omitempty"`
}

// Empty reports whether no tool is requested.
func (c *Configuration) Empty() bool {
	return c == nil || (len(c.KnowledgeBase) == 0 && !c.CodeInterpreter && len(c.MCPConfig) == 0)
}
