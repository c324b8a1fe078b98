package operator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Call connects to the operator socket at socketPath, sends cmd, and
// returns the decoded Response. Used by substratectl's CLI subcommands.
func Call(socketPath, cmd string) (Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, connTimeout)
	if err != nil {
		return Response{}, fmt.Errorf("operator: dial %q: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	req, err := json.Marshal(Request{Cmd: cmd})
	if err != nil {
		return Response{}, fmt.Errorf("operator: marshal request: %w", err)
	}
	req = append(req, '\n')
	if _, err := conn.Write(req); err != nil {
		return Response{}, fmt.Errorf("operator: send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("operator: read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("operator: decode response: %w", err)
	}
	if !resp.OK {
		return resp, fmt.Errorf("operator: command %q failed: %s", cmd, resp.Error)
	}
	return resp, nil
}
