package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	smcp "github.com/riskuniversalis/staffportal/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the moderation
tools (bans, playtime, audit log) to AI agents. Tools run as the staff
member saved by 'staffportal login'.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for MCP clients that launch it as a subprocess.

In HTTP mode, the server listens on the given address using streamable HTTP.
The HTTP endpoint has no authentication of its own and can ban, modify and
unban as the saved staff member, so it binds to 127.0.0.1 by default. Only
expose it on other interfaces behind something that authenticates callers.`,
		Example: `  staffportal mcp                                          # stdio mode
  staffportal mcp --transport http --addr 127.0.0.1:3001   # streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (default from mcp.transport)")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from mcp.addr)")

	return cmd
}

func runMCP(transport, addr string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	if transport == "" {
		transport = a.cfg.MCP.Transport
	}
	if addr == "" {
		addr = a.cfg.MCP.Addr
	}

	mcpSrv := smcp.NewMCPServer(a.client, a.svc, versionString(), a.logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		if !isLoopbackAddr(addr) {
			a.logger.Warn("MCP HTTP server has no authentication and is not bound to loopback; callers act as the saved staff member", "addr", addr)
		}
		return mcpSrv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}

// isLoopbackAddr reports whether addr only listens on a loopback interface.
// An empty host (":3001") listens everywhere.
func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
