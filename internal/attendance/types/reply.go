package types

// Result codes ("rslt").
const (
	RsltNotFound     = "NF"
	RsltFound        = "F"
	RsltLogError     = "LOG_ERR"
	RsltUnknownError = "UNKNOWN_ERR"
	RsltAdmin        = "admin"
	RsltNotAdmin     = "not-admin"
	RsltAdded        = "A"
	RsltDeleted      = "DL"
	RsltDone         = "D"
	RsltFail         = "FAIL"
)

// Scan actions ("act").
const (
	ActIn   = "IN"
	ActOut  = "OUT"
	ActFail = "FAIL"
)

// Reply is the payload sent back to the reader.  Only the fields relevant
// to the command kind and outcome are populated.
type Reply struct {
	MD        string `json:"md"`
	Result    string `json:"rslt,omitempty"`
	Action    string `json:"act,omitempty"`
	Name      string `json:"nm,omitempty"`
	Time      string `json:"tm,omitempty"`
	Duration  string `json:"dur,omitempty"`
	ResetTime string `json:"rtr,omitempty"`
}
