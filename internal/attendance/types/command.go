package types

// Command kinds carried in the "md" field.
const (
	CmdScan      = "scan"
	CmdAuth      = "auth"
	CmdSearch    = "search"
	CmdAdd       = "add"
	CmdDelete    = "delete"
	CmdResetTime = "rst_time"
)

// Command is the payload the reader sends inside the relay envelope's msg.
// Fields are pointers so a missing key can be told apart from an empty one.
type Command struct {
	MD       string  `json:"md"`
	ID       *string `json:"id,omitempty"`
	UserName *string `json:"un,omitempty"`
	UserType *string `json:"ut,omitempty"`
	Time     *string `json:"tm,omitempty"`
}
