package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"club_system/internal/config"
	"club_system/internal/db"
	"club_system/internal/domain"
	"club_system/internal/utils"
	"club_system/internal/workflow"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  registrations [PENDING|APPROVED|REJECTED]   list registration requests
  approve <registration_id>                  approve a registration
  reject <registration_id> [reason]          reject a registration
  market [position]                          show the transfer market
  transfers                                  list every transfer request`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	cfg := config.LoadConfig()
	logrus.SetLevel(logrus.WarnLevel) // Keep workflow logs out of the table output

	gdb, err := db.Open(cfg)
	if err != nil {
		fail("Failed to connect to database: %v", err)
	}
	ctx := context.Background()
	// Share the server's cache so approvals here invalidate its read models
	cache, err := utils.NewCacheFromConfig(ctx, cfg)
	if err != nil {
		fail("Failed to set up cache: %v", err)
	}
	engine := workflow.New(workflow.Options{DB: gdb, Cache: cache, CacheTTL: cfg.CacheTTL})

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "market" {
		market(ctx, engine, args)
		return
	}
	sess := login(ctx, engine, cfg)
	switch cmd {
	case "registrations":
		registrations(ctx, engine, sess, args)
	case "approve":
		id := idArg(args)
		res, err := engine.ApproveRegistration(ctx, sess, id)
		if err != nil {
			fail("Error approving registration: %v", err)
		}
		color.Green("Approved %s as %s (user id %d)", res.User.Username, res.User.Role, res.User.ID)
	case "reject":
		id := idArg(args)
		reason := strings.Join(args[1:], " ")
		if _, err := engine.RejectRegistration(ctx, sess, id, reason); err != nil {
			fail("Error rejecting registration: %v", err)
		}
		color.Yellow("Rejected registration %d", id)
	case "transfers":
		views, err := engine.ListTransfers(ctx, sess)
		if err != nil {
			fail("Error listing transfers: %v", err)
		}
		for _, v := range views {
			fmt.Printf("%4d  %-20s %-15s -> %-15s %8.2f  %s\n",
				v.ID, v.PlayerName, v.SourceClubName, v.DestinationClubName, v.TransferFee, transferStatus(v.Status))
		}
	default:
		fmt.Println("Unknown command:", cmd)
		fmt.Println(usage)
	}
}

// login authenticates the admin, prompting for the password on a terminal
func login(ctx context.Context, engine *workflow.Engine, cfg *config.Config) *domain.Session {
	password := cfg.AdminPassword
	if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Password for %s: ", cfg.AdminUsername)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fail("Failed to read password: %v", err)
		}
		password = string(b)
	}
	_, sess, err := engine.Authenticate(ctx, cfg.AdminUsername, password)
	if err != nil {
		fail("Login failed: %v", err)
	}
	if !sess.IsAdmin() {
		fail("User %s is not a system admin", cfg.AdminUsername)
	}
	return sess
}

func registrations(ctx context.Context, engine *workflow.Engine, sess *domain.Session, args []string) {
	var status *domain.RegistrationStatus
	if len(args) > 0 {
		s := domain.RegistrationStatus(strings.ToUpper(args[0]))
		status = &s
	}
	list, err := engine.ListRegistrations(ctx, sess, status)
	if err != nil {
		fail("Error listing registrations: %v", err)
	}
	color.Cyan("%d pending request(s)", list.Pending)
	for _, r := range list.Requests {
		fmt.Printf("%4d  %-16s %-13s %-15s %s  %s\n",
			r.ID, r.Username, r.RequestedRole, r.ClubName, r.RequestDate.Format("2006-01-02 15:04"), registrationStatus(r.Status))
	}
}

func market(ctx context.Context, engine *workflow.Engine, args []string) {
	var position *domain.Position
	if len(args) > 0 {
		p, ok := domain.ParsePosition(args[0])
		if !ok {
			fail("Unknown position %q", args[0])
		}
		position = &p
	}
	entries, err := engine.Market(ctx, position)
	if err != nil {
		fail("Error loading market: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No players available in the transfer market")
		return
	}
	for _, e := range entries {
		fmt.Printf("%4d  %-20s %-11s #%-3d %-15s %s\n",
			e.Transfer.ID, e.Player.Name, e.Player.Position, e.Player.Jersey, e.Transfer.SourceClubName,
			color.GreenString("%.2fM", e.Transfer.TransferFee))
	}
}

func transferStatus(s domain.TransferStatus) string {
	switch s {
	case domain.TransferPendingApproval:
		return color.YellowString("%s", s.Label())
	case domain.TransferInMarket:
		return color.CyanString("%s", s.Label())
	case domain.TransferCompleted:
		return color.GreenString("%s", s.Label())
	}
	return color.RedString("%s", s.Label())
}

func registrationStatus(s domain.RegistrationStatus) string {
	switch s {
	case domain.RegistrationPending:
		return color.YellowString("%s", s.Label())
	case domain.RegistrationApproved:
		return color.GreenString("%s", s.Label())
	}
	return color.RedString("%s", s.Label())
}

func idArg(args []string) uint {
	if len(args) < 1 {
		fail("Missing id argument")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fail("Invalid id %q", args[0])
	}
	return uint(id)
}

func fail(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}
