package growth

// Tool identifies what a harvest is attempted with.
type Tool uint8

const (
	ToolNone Tool = iota
	ToolKnife
	ToolShears
)

var toolNames = [...]string{
	ToolNone:   "none",
	ToolKnife:  "knife",
	ToolShears: "shears",
}

func (t Tool) String() string {
	if int(t) < len(toolNames) {
		return toolNames[t]
	}
	return "unknown"
}

// ParseTool maps a tool name to a Tool. Unknown names map to ToolNone.
func ParseTool(name string) Tool {
	for i, n := range toolNames {
		if n == name {
			return Tool(i)
		}
	}
	return ToolNone
}

// Reason explains why a harvest did not happen.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonDead
	ReasonGenerationTooLow
	ReasonNothingToHarvest
	ReasonInvalidTool
)

var reasonNames = [...]string{
	ReasonNone:             "harvested",
	ReasonDead:             "dead",
	ReasonGenerationTooLow: "generation_too_low",
	ReasonNothingToHarvest: "nothing_to_harvest",
	ReasonInvalidTool:      "invalid_tool",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}
