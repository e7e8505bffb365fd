package enforcer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
)

// sendAdminReq dials sockPath, writes req as one newline-delimited JSON
// line, and reads back one newline-delimited JSON reply (spec.md §6's
// admin socket protocol). Each call opens and closes its own connection,
// matching the original daemon's one-shot send_admin_req helper — the
// admin socket is low-frequency (status changes, individual ban reports),
// so a persistent connection buys nothing.
func sendAdminReq(ctx context.Context, sockPath string, req adminReq) (adminResp, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", sockPath)
	if err != nil {
		return adminResp{}, fmt.Errorf("dial admin socket: %w", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	line, err := json.Marshal(req)
	if err != nil {
		return adminResp{}, fmt.Errorf("encode admin request: %w", err)
	}
	line = append(line, '\n')
	if _, err := conn.Write(line); err != nil {
		return adminResp{}, fmt.Errorf("write admin request: %w", err)
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return adminResp{}, fmt.Errorf("read admin response: %w", err)
		}
		return adminResp{}, fmt.Errorf("admin socket closed without a response")
	}

	var resp adminResp
	if err := json.Unmarshal(sc.Bytes(), &resp); err != nil {
		return adminResp{}, fmt.Errorf("decode admin response: %w", err)
	}
	return resp, nil
}

func reportEnforcementStatus(ctx context.Context, sockPath string, status EnforcementStatus) error {
	_, err := sendAdminReq(ctx, sockPath, adminReq{Type: "report_enforcement_status", Status: &status})
	return err
}

func reportBanApply(ctx context.Context, sockPath string, result BanApplyResult) error {
	_, err := sendAdminReq(ctx, sockPath, adminReq{Type: "report_ban_apply_result", Report: &result})
	return err
}
