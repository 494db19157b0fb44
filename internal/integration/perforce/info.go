package perforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ServerInfo is the subset of "p4 info" used by callers.
type ServerInfo struct {
	UserName      string
	ClientName    string
	ClientRoot    string
	ClientHost    string
	ServerAddress string
	ServerRoot    string
	ServerVersion string
	ServerDate    string
	CaseHandling  string
}

// ParseInfo reads the tagged JSON form of "p4 -ztag -Mj info". Only the
// first object of the output is used.
func ParseInfo(output string) (ServerInfo, error) {
	var doc string
	for _, line := range outputLines(output) {
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			doc = line
			break
		}
	}
	if doc == "" || !gjson.Valid(doc) {
		return ServerInfo{}, fmt.Errorf("p4 info: %w", ErrUnexpectedOutput)
	}

	r := gjson.Parse(doc)
	return ServerInfo{
		UserName:      r.Get("userName").String(),
		ClientName:    r.Get("clientName").String(),
		ClientRoot:    r.Get("clientRoot").String(),
		ClientHost:    r.Get("clientHost").String(),
		ServerAddress: r.Get("serverAddress").String(),
		ServerRoot:    r.Get("serverRoot").String(),
		ServerVersion: r.Get("serverVersion").String(),
		ServerDate:    r.Get("serverDate").String(),
		CaseHandling:  r.Get("caseHandling").String(),
	}, nil
}

// Info returns details about the connection, client and server.
func (s *Session) Info(ctx context.Context) (ServerInfo, error) {
	res, _, err := s.exec(ctx, "info", nil, "-ztag", "-Mj", "info")
	if err != nil {
		return ServerInfo{}, err
	}
	return ParseInfo(res.Stdout)
}
