package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"healthline/internal/client"
	"healthline/internal/session"
)

type api interface {
	Register(ctx context.Context, email, password, role string) (int64, error)
	Login(ctx context.Context, s session.State, email, password string) (session.State, error)
	Me(ctx context.Context, s session.State) (session.User, error)
	ListPatients(ctx context.Context, s session.State) ([]client.Patient, error)
	CreatePatient(ctx context.Context, s session.State, in client.NewPatient) (client.Patient, error)
	GetPatient(ctx context.Context, s session.State, id int64) (client.Patient, error)
	DeletePatient(ctx context.Context, s session.State, id int64) error
	Chat(ctx context.Context, message string) (string, error)
	Export(ctx context.Context, s session.State) (client.Export, error)
	ListExports(ctx context.Context, s session.State) ([]client.ExportObject, error)
}

// shell owns the session for the life of the process. Only the Run loop
// touches it.
type shell struct {
	api   api
	in    io.Reader
	out   io.Writer
	state session.State
	done  bool
}

func newShell(api api, in io.Reader, out io.Writer) *shell {
	return &shell{api: api, in: in, out: out, state: session.Anonymous()}
}

func (s *shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Healthline. Type 'help' for commands.")
	scanner := bufio.NewScanner(s.in)
	for !s.done {
		fmt.Fprint(s.out, s.prompt())
		if !scanner.Scan() {
			break
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func (s *shell) prompt() string {
	if u, ok := s.state.User(); ok {
		return fmt.Sprintf("%s (%s)> ", u.Email, u.Role)
	}
	return "> "
}

// Exec runs a single command line.
func (s *shell) Exec(ctx context.Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	root := s.commands()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// guard enforces the navigation rules for the view a command belongs to.
func (s *shell) guard(view session.View) error {
	switch session.Route(s.state, view) {
	case view:
		return nil
	case session.ViewLogin:
		return errors.New("please log in first")
	default:
		u, _ := s.state.User()
		return fmt.Errorf("already signed in as %s, log out first", u.Email)
	}
}

func (s *shell) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "healthline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.out)
	root.SetErr(s.out)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "register <email> <password> [doctor|patient]",
			Short: "Create an account",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewRegister); err != nil {
					return err
				}
				role := ""
				if len(args) == 3 {
					role = args[2]
				}
				id, err := s.api.Register(cmd.Context(), args[0], args[1], role)
				if err != nil {
					return err
				}
				fmt.Fprintf(s.out, "registered user %d, you can log in now\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "login <email> <password>",
			Short: "Sign in",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewLogin); err != nil {
					return err
				}
				next, err := s.api.Login(cmd.Context(), s.state, args[0], args[1])
				if err != nil {
					return err
				}
				s.state = next
				u, _ := s.state.User()
				fmt.Fprintf(s.out, "welcome %s (%s)\n", u.Email, u.Role)
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s.state = s.state.Logout()
				fmt.Fprintln(s.out, "signed out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewDashboard); err != nil {
					return err
				}
				u, err := s.api.Me(cmd.Context(), s.state)
				if err != nil {
					return err
				}
				fmt.Fprintf(s.out, "%d %s %s\n", u.ID, u.Email, u.Role)
				return nil
			},
		},
		&cobra.Command{
			Use:   "patients",
			Short: "List visible patient records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewDashboard); err != nil {
					return err
				}
				records, err := s.api.ListPatients(cmd.Context(), s.state)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(s.out, "no records")
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(s.out, "#%d  %s  %s  (owner %d)\n", r.ID, r.Name, r.Symptoms, r.UserID)
				}
				return nil
			},
		},
		s.addCommand(),
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a record with its QR payload",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewRecord); err != nil {
					return err
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				r, err := s.api.GetPatient(cmd.Context(), s.state, id)
				if err != nil {
					return err
				}
				payload, err := qrPayload(r)
				if err != nil {
					return err
				}
				fmt.Fprintf(s.out, "#%d %s\nphone:    %s\nsymptoms: %s\ncreated:  %s\nqr:       %s\n",
					r.ID, r.Name, r.Phone, r.Symptoms, r.CreatedAt, payload)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewDashboard); err != nil {
					return err
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.api.DeletePatient(cmd.Context(), s.state, id); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "deleted #%d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "chat <message>",
			Short: "Ask the assistant",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewChat); err != nil {
					return err
				}
				reply, err := s.api.Chat(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					var apiErr *client.APIError
					if errors.As(err, &apiErr) && apiErr.Reply != "" {
						fmt.Fprintf(s.out, "assistant: %s\n", apiErr.Reply)
						return nil
					}
					return err
				}
				fmt.Fprintf(s.out, "assistant: %s\n", reply)
				return nil
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Export all records to object storage (doctors only)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewDashboard); err != nil {
					return err
				}
				res, err := s.api.Export(cmd.Context(), s.state)
				if err != nil {
					return err
				}
				fmt.Fprintf(s.out, "exported %d records to %s\n%s\n", res.Count, res.Location, res.URL)
				return nil
			},
		},
		&cobra.Command{
			Use:   "exports",
			Short: "List earlier exports (doctors only)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.guard(session.ViewDashboard); err != nil {
					return err
				}
				objects, err := s.api.ListExports(cmd.Context(), s.state)
				if err != nil {
					return err
				}
				for _, o := range objects {
					modified := "-"
					if o.LastModified != nil {
						modified = *o.LastModified
					}
					fmt.Fprintf(s.out, "%s  %d bytes  %s\n", o.Key, o.Size, modified)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:     "exit",
			Aliases: []string{"quit"},
			Short:   "Leave the shell",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s.done = true
				return nil
			},
		},
	)
	return root
}

func (s *shell) addCommand() *cobra.Command {
	var (
		phone string
		owner int64
	)
	cmd := &cobra.Command{
		Use:   "add <name> <symptoms>",
		Short: "Create a patient record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.guard(session.ViewDashboard); err != nil {
				return err
			}
			r, err := s.api.CreatePatient(cmd.Context(), s.state, client.NewPatient{
				Name:     args[0],
				Phone:    phone,
				Symptoms: args[1],
				UserID:   owner,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "created #%d for user %d\n", r.ID, r.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().Int64Var(&owner, "for", 0, "owner user id (doctors only)")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return id, nil
}

func qrPayload(r client.Patient) (string, error) {
	raw, err := json.Marshal(struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Phone    string `json:"phone,omitempty"`
		Symptoms string `json:"symptoms"`
	}{r.ID, r.Name, r.Phone, r.Symptoms})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
