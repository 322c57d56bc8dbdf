package guid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"rcsclientgo/global"

	"github.com/google/uuid"
)

// Guid is a globally unique 16 byte identifier
type Guid [16]byte

// guidNew generates a random RFC 4122-conformant version 4 Guid.
func guidNew() *Guid {
	g := new(Guid)
	if _, err := rand.Read(g[:]); err != nil {
		panic(err)
	}
	g[6] = (g[6] & 0x0f) | 0x40 // version = 4
	g[8] = (g[8] & 0x3f) | 0x80 // variant = RFC 4122
	return g
}

func (g *Guid) toString(isfull bool, prfx string) string {
	if isfull {
		if prfx == "" {
			return fmt.Sprintf("%x-%x-%x-%x-%x", g[0:4], g[4:6], g[6:8], g[8:10], g[10:16])
		}
		// used for Call-ID
		n := len(prfx) / 2
		return fmt.Sprintf("%s-%s-%x-%x-%x-%x-%x", prfx[:n], prfx[n:], g[0:4], g[4:6], g[6:8], g[8:10], g[10:16])
	}
	if prfx == "" {
		return fmt.Sprintf("%x", g[8:14])
	}
	return fmt.Sprintf("%s%x", prfx, g[8:16])
}

func generateRandomHex(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return global.EntityName
	}
	return hex.EncodeToString(bytes)
}

func GetKey() string {
	return guidNew().toString(true, "")
}

// NewMessageID returns the opaque globally unique id assigned to a chat
// message once at creation. Also used as the IMDN Message-ID.
func NewMessageID() string {
	return uuid.NewString()
}

func NewCallID() string {
	return guidNew().toString(true, generateRandomHex(7))
}

// NewConversationID returns a CPM conversation identifier.
func NewConversationID() string {
	return uuid.NewString()
}

// NewContributionID returns a CPM contribution identifier.
func NewContributionID() string {
	return uuid.NewString()
}

func NewViaBranch() string {
	return guidNew().toString(false, global.MagicCookie)
}

func NewTag() string {
	return guidNew().toString(false, "")
}

// NewBoundary returns a fresh multipart boundary token.
func NewBoundary() string {
	return "boundary-" + generateRandomHex(8)
}

func Md5Hash(data string) string {
	hash := md5.Sum([]byte(data))
	return hex.EncodeToString(hash[:])
}

func GenerateCNonce() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
