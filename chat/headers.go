package chat

import (
	"strings"

	"rcsclientgo/global"
	"rcsclientgo/system"
)

// SipHeaders is a case-insensitive multi-value header collection handed to
// the SIP transport collaborator.
type SipHeaders struct {
	_map map[string][]string
}

func NewSipHeaders() *SipHeaders {
	return &SipHeaders{_map: make(map[string][]string)}
}

// NewSHsPointer returns a header collection, optionally preloaded with the
// defaults every outbound request carries.
func NewSHsPointer(setDefaults bool) *SipHeaders {
	headers := NewSipHeaders()
	if setDefaults {
		headers.AddHeader(global.User_Agent, global.ClientName)
		headers.AddHeader(global.Allow, global.AllowedMethods)
	}
	return headers
}

func (headers *SipHeaders) InternalMap() map[string][]string {
	return headers._map
}

// Clone returns an independent copy; mutating it never touches the original.
func (headers *SipHeaders) Clone() *SipHeaders {
	cp := NewSipHeaders()
	for headerName, values := range headers._map {
		cp._map[headerName] = append([]string(nil), values...)
	}
	return cp
}

// headerName is case insensitive
func (headers *SipHeaders) HeaderExists(headerName string) bool {
	_, ok := headers._map[system.ASCIIToLower(headerName)]
	return ok
}

func (headers *SipHeaders) AddHeader(header global.HeaderEnum, headerValue string) {
	headers.Add(header.String(), headerValue)
}

func (headers *SipHeaders) Add(headerName string, headerValue string) {
	headerName = system.ASCIIToLower(headerName)
	headers._map[headerName] = append(headers._map[headerName], headerValue)
}

func (headers *SipHeaders) SetHeader(header global.HeaderEnum, headerValue string) {
	headers.Set(header.String(), headerValue)
}

func (headers *SipHeaders) Set(headerName string, headerValue string) {
	headers._map[system.ASCIIToLower(headerName)] = []string{headerValue}
}

func (headers *SipHeaders) ValuesHeader(header global.HeaderEnum) (bool, []string) {
	return headers.Values(header.String())
}

func (headers *SipHeaders) Values(headerName string) (bool, []string) {
	v, ok := headers._map[system.ASCIIToLower(headerName)]
	return ok, v
}

func (headers *SipHeaders) ValueHeader(header global.HeaderEnum) string {
	return headers.Value(header.String())
}

func (headers *SipHeaders) Value(headerName string) string {
	if ok, v := headers.Values(headerName); ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func (headers *SipHeaders) Delete(headerName string) bool {
	headerName = system.ASCIIToLower(headerName)
	if _, ok := headers._map[headerName]; ok {
		delete(headers._map, headerName)
		return true
	}
	return false
}

// DoesValueExistInHeader reports whether any value of the header contains the
// given substring, case-insensitively.
func (headers *SipHeaders) DoesValueExistInHeader(headerName string, headerValue string) bool {
	headerValue = system.ASCIIToLower(headerValue)
	_, values := headers.Values(headerName)
	for _, hv := range values {
		if strings.Contains(system.ASCIIToLower(hv), headerValue) {
			return true
		}
	}
	return false
}
