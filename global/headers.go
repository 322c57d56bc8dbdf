package global

// ==============================================================
type HeaderEnum int

// revive:disable:var-naming
const (
	Accept HeaderEnum = iota
	Accept_Contact
	Allow
	Call_ID
	Contact
	Content_Disposition
	Content_Length
	Content_Transfer_Encoding
	Content_Type
	Contribution_ID
	Conversation_ID
	CSeq
	Event
	Expires
	From
	Max_Forwards
	P_Preferred_Identity
	P_Preferred_Service
	Proxy_Authenticate
	Proxy_Authorization
	Reason
	Referred_By
	Refer_To
	Refer_Sub
	Require
	Subject
	Supported
	To
	User_Agent
	Via
	Warning
)

// revive:enable:var-naming

var HeaderEnumToString = map[HeaderEnum]string{
	Accept:                    "Accept",
	Accept_Contact:            "Accept-Contact",
	Allow:                     "Allow",
	Call_ID:                   "Call-ID",
	Contact:                   "Contact",
	Content_Disposition:       "Content-Disposition",
	Content_Length:            "Content-Length",
	Content_Transfer_Encoding: "Content-Transfer-Encoding",
	Content_Type:              "Content-Type",
	Contribution_ID:           "Contribution-ID",
	Conversation_ID:           "Conversation-ID",
	CSeq:                      "CSeq",
	Event:                     "Event",
	Expires:                   "Expires",
	From:                      "From",
	Max_Forwards:              "Max-Forwards",
	P_Preferred_Identity:      "P-Preferred-Identity",
	P_Preferred_Service:       "P-Preferred-Service",
	Proxy_Authenticate:        "Proxy-Authenticate",
	Proxy_Authorization:       "Proxy-Authorization",
	Reason:                    "Reason",
	Referred_By:               "Referred-By",
	Refer_To:                  "Refer-To",
	Refer_Sub:                 "Refer-Sub",
	Require:                   "Require",
	Subject:                   "Subject",
	Supported:                 "Supported",
	To:                        "To",
	User_Agent:                "User-Agent",
	Via:                       "Via",
	Warning:                   "Warning",
}

func (he HeaderEnum) String() string {
	return HeaderEnumToString[he]
}
