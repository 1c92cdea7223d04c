package main

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/bft-labs/caseledger"
)

// op builds the RunE of a command that prints one result.
func (c *cli) op(fn func(ctx context.Context, client *caseledger.Client, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return c.withClient(cmd.Context(), func(ctx context.Context, client *caseledger.Client) error {
			out, err := fn(ctx, client, args)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), true).print(out)
		})
	}
}

func (c *cli) sessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Connect and print the session (account, balance, network)",
		Args:  cobra.NoArgs,
		RunE: c.op(func(ctx context.Context, client *caseledger.Client, _ []string) (any, error) {
			err := client.Connect(ctx)
			view := viewSession(client.Session())
			if err != nil {
				return nil, err
			}
			return view, nil
		}),
	}
}

func (c *cli) caseCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "case", Short: "Create, update and read cases"}

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List case ids",
		Args:  cobra.NoArgs,
		RunE: c.op(func(ctx context.Context, client *caseledger.Client, _ []string) (any, error) {
			if activeOnly {
				return client.ListActiveCaseIDs(ctx)
			}
			return client.ListCaseIDs(ctx)
		}),
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "only active cases")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <case-id> <title> <description>",
			Short: "Register a new case",
			Args:  cobra.ExactArgs(3),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				return client.CreateCase(ctx, args[0], args[1], args[2])
			}),
		},
		&cobra.Command{
			Use:   "status <case-id> <active>",
			Short: "Open or close a case",
			Args:  cobra.ExactArgs(2),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				active, err := strconv.ParseBool(args[1])
				if err != nil {
					return nil, fmt.Errorf("active: %w", err)
				}
				return client.UpdateCaseStatus(ctx, args[0], active)
			}),
		},
		&cobra.Command{
			Use:   "get <case-id>",
			Short: "Show a case",
			Args:  cobra.ExactArgs(1),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				return client.GetCase(ctx, args[0])
			}),
		},
		list,
	)
	return cmd
}

func (c *cli) witnessCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "witness", Short: "Issue and read witness tokens"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <to> <name> <case-id> <metadata-uri> <judge>",
			Short: "Issue a witness token to an address",
			Args:  cobra.ExactArgs(5),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				to, err := parseAddress("to", args[0])
				if err != nil {
					return nil, err
				}
				judge, err := parseAddress("judge", args[4])
				if err != nil {
					return nil, err
				}
				return client.CreateWitness(ctx, to, args[1], args[2], args[3], judge)
			}),
		},
		&cobra.Command{
			Use:   "get <token-id>",
			Short: "Show a witness token",
			Args:  cobra.ExactArgs(1),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return client.GetWitness(ctx, id)
			}),
		},
	)
	return cmd
}

func (c *cli) evidenceCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "evidence", Short: "Submit and read evidence"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "submit <case-id> <evidence-hash> <metadata-uri>",
			Short: "Submit evidence for a case",
			Args:  cobra.ExactArgs(3),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				return client.SubmitEvidence(ctx, args[0], args[1], args[2])
			}),
		},
		&cobra.Command{
			Use:   "get <evidence-id>",
			Short: "Show an evidence record",
			Args:  cobra.ExactArgs(1),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return client.GetEvidence(ctx, id)
			}),
		},
	)
	return cmd
}

func (c *cli) proposalCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "proposal", Short: "Create, vote on and read expert proposals"}

	votingPeriod := 7 * 24 * time.Hour
	create := &cobra.Command{
		Use:   "create <title> <description> <case-id> <evidence-uri>",
		Short: "Open an expert proposal",
		Args:  cobra.ExactArgs(4),
		RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
			if votingPeriod < time.Second {
				return nil, fmt.Errorf("voting period must be at least 1s")
			}
			return client.CreateProposal(ctx, args[0], args[1], args[2], args[3], uint64(votingPeriod/time.Second))
		}),
	}
	create.Flags().DurationVar(&votingPeriod, "voting-period", votingPeriod, "how long the proposal accepts votes")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "vote <proposal-id> <yes|no>",
			Short: "Vote on a proposal",
			Args:  cobra.ExactArgs(2),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				support, err := parseVote(args[1])
				if err != nil {
					return nil, err
				}
				return client.CastVote(ctx, id, support)
			}),
		},
		&cobra.Command{
			Use:   "get <proposal-id>",
			Short: "Show a proposal and its tally",
			Args:  cobra.ExactArgs(1),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return client.GetProposal(ctx, id)
			}),
		},
	)
	return cmd
}

func (c *cli) paymentCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "payment", Short: "Create, settle and read case payments"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <case-id> <payment-type> <recipient> <amount-ether>",
			Short: "Create a payment order",
			Args:  cobra.ExactArgs(4),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				recipient, err := parseAddress("recipient", args[2])
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(args[3])
				if err != nil {
					return nil, err
				}
				return client.CreatePayment(ctx, args[0], args[1], recipient, amount)
			}),
		},
		&cobra.Command{
			Use:   "process <payment-id> <amount-ether>",
			Short: "Pay a payment order, attaching the amount",
			Args:  cobra.ExactArgs(2),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return nil, err
				}
				return client.ProcessPayment(ctx, id, amount)
			}),
		},
		&cobra.Command{
			Use:   "get <payment-id>",
			Short: "Show a payment order",
			Args:  cobra.ExactArgs(1),
			RunE: c.op(func(ctx context.Context, client *caseledger.Client, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return client.GetPayment(ctx, id)
			}),
		},
	)
	return cmd
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", s, err)
	}
	return id, nil
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", name, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	wei, err := caseledger.ParseEther(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return wei, nil
}

func parseVote(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "for", "true", "1":
		return true, nil
	case "no", "against", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("vote %q: want yes or no", s)
}
