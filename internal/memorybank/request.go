package memorybank

import "fmt"

// DefaultSection is the section header used when an append names none.
const DefaultSection = "## General"

// Fixed validation messages.
const (
	MsgInvalidFileName      = "Missing or invalid 'file_name' parameter."
	MsgInvalidEntry         = "Missing or invalid 'entry' parameter."
	MsgInvalidSectionHeader = "Missing or invalid 'section_header' parameter."
	MsgInvalidProjectBrief  = "Missing or invalid 'project_brief_content' parameter."
)

// Request is a validated tool call. The concrete type identifies the tool:
// InitializeRequest, StatusRequest, ReadRequest or AppendRequest.
type Request interface {
	Tool() string
}

// InitializeRequest ensures the well-known documents exist.
type InitializeRequest struct {
	// ProjectBrief, when non-empty, is appended to the product context.
	ProjectBrief string
}

// StatusRequest reports whether the store exists and lists its documents.
type StatusRequest struct{}

// ReadRequest renders one document.
type ReadRequest struct {
	FileName string
}

// AppendRequest appends an entry under a section of a document.
type AppendRequest struct {
	FileName      string
	Entry         string
	SectionHeader string
}

func (InitializeRequest) Tool() string { return ToolInitialize }
func (StatusRequest) Tool() string     { return ToolStatus }
func (ReadRequest) Tool() string       { return ToolRead }
func (AppendRequest) Tool() string     { return ToolAppend }

// ValidationError reports malformed or missing caller input.
// Message is one of the fixed Msg* texts.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownToolError reports a tool name outside the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// ParseRequest validates a loosely-typed argument bag for the named tool.
// It returns either a complete typed Request or an error (*ValidationError
// or *UnknownToolError), never a partially populated request.
func ParseRequest(tool string, args map[string]any) (Request, error) {
	switch tool {
	case ToolInitialize:
		brief, err := optionalString(args, "project_brief_content", MsgInvalidProjectBrief)
		if err != nil {
			return nil, err
		}
		return InitializeRequest{ProjectBrief: brief}, nil

	case ToolStatus:
		return StatusRequest{}, nil

	case ToolRead:
		name, err := requiredString(args, "file_name", MsgInvalidFileName)
		if err != nil {
			return nil, err
		}
		return ReadRequest{FileName: name}, nil

	case ToolAppend:
		name, err := requiredString(args, "file_name", MsgInvalidFileName)
		if err != nil {
			return nil, err
		}
		entry, err := requiredString(args, "entry", MsgInvalidEntry)
		if err != nil {
			return nil, err
		}
		header, err := optionalString(args, "section_header", MsgInvalidSectionHeader)
		if err != nil {
			return nil, err
		}
		if header == "" {
			header = DefaultSection
		}
		return AppendRequest{FileName: name, Entry: entry, SectionHeader: header}, nil

	default:
		return nil, &UnknownToolError{Name: tool}
	}
}

// requiredString returns args[key] if it is a non-empty string.
func requiredString(args map[string]any, key, msg string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", &ValidationError{Param: key, Message: msg}
	}
	return s, nil
}

// optionalString returns args[key] if it is a string, "" if it is absent or
// null, and a ValidationError for any other type.
func optionalString(args map[string]any, key, msg string) (string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Param: key, Message: msg}
	}
	return s, nil
}
