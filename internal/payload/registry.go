package payload

import (
	"encoding/json"

	"github.com/cleared-dev/fidash/internal/model"
)

// Schema checks one tool's payload at the fetch boundary.
type Schema interface {
	Tool() model.Tool
	Check(raw []byte) []ValidationError
}

// Registry holds one schema per tool.
type Registry struct {
	schemas map[model.Tool]Schema
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[model.Tool]Schema)}
}

// Register adds a schema. Panics on duplicate tool.
func (r *Registry) Register(s Schema) {
	if _, ok := r.schemas[s.Tool()]; ok {
		panic("duplicate schema for tool: " + string(s.Tool()))
	}
	r.schemas[s.Tool()] = s
}

// Get returns the schema for tool, or nil.
func (r *Registry) Get(tool model.Tool) Schema {
	return r.schemas[tool]
}

// DefaultRegistry returns a registry with a schema for every tool.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(decodeSchema[NetWorth]{tool: model.ToolNetWorth, decode: DecodeNetWorth})
	r.Register(decodeSchema[BankTransactions]{tool: model.ToolBankTransactions, decode: DecodeBankTransactions})
	r.Register(decodeSchema[CreditReport]{tool: model.ToolCreditReport, decode: DecodeCreditReport})
	r.Register(objectSchema{tool: model.ToolEPFDetails})
	r.Register(decodeSchema[MutualFunds]{tool: model.ToolMFTransactions, decode: DecodeMutualFunds})
	r.Register(decodeSchema[Stocks]{tool: model.ToolStockTransactions, decode: DecodeStocks})
	return r
}

// Check runs tool's schema against raw. Tools without a schema pass.
func (r *Registry) Check(tool model.Tool, raw []byte) []ValidationError {
	s := r.Get(tool)
	if s == nil {
		return nil
	}
	return s.Check(raw)
}

// decodeSchema accepts a payload when its typed decoder does.
type decodeSchema[T any] struct {
	tool   model.Tool
	decode func([]byte) (*T, error)
}

func (s decodeSchema[T]) Tool() model.Tool { return s.tool }

func (s decodeSchema[T]) Check(raw []byte) []ValidationError {
	if verrs := (objectSchema{tool: s.tool}).Check(raw); len(verrs) > 0 {
		return verrs
	}
	if _, err := s.decode(raw); err != nil {
		return []ValidationError{{Tool: s.tool, Reason: err.Error()}}
	}
	return nil
}

// objectSchema accepts any JSON object.
type objectSchema struct {
	tool model.Tool
}

func (s objectSchema) Tool() model.Tool { return s.tool }

func (s objectSchema) Check(raw []byte) []ValidationError {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return []ValidationError{{Tool: s.tool, Reason: "payload is not a JSON object"}}
	}
	return nil
}
