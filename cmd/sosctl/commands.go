package main

import (
	"fmt"
	"strings"

	approoms "split-or-steal/internal/app/rooms"
	"split-or-steal/internal/commitment"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sosctl",
		Short:         "split-or-steal player helper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		PackCmd(),
		SaltCmd(),
		CommitCmd(),
		VerifyCmd(),
		WeiCmd(),
	)
	return cmd
}

func PackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <choices>",
		Short: "Pack five choices (steal,split,...) into the committed integer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packed, err := approoms.ParseChoicesText(args[0])
			if err != nil {
				return errors.Wrap(err, "parse choices")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", packed, describe(packed))
			return nil
		},
	}
}

func SaltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "salt",
		Short: "Draw a fresh random salt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := commitment.NewSalt()
			if err != nil {
				return errors.Wrap(err, "draw salt")
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Hex())
			return nil
		},
	}
}

func CommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Build the commitment for a room; a salt is drawn when none is given",
		Args:  cobra.NoArgs,
		RunE:  runCommit,
	}
	addRoundFlags(cmd)
	return cmd
}

func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a reveal opens a commitment",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}
	addRoundFlags(cmd)
	cmd.Flags().StringP("commitment", "c", "", "commitment hash (0x...)")
	cmd.MarkFlagRequired("commitment")
	return cmd
}

func WeiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wei <amount>",
		Short: "Convert a decimal ether amount to base units (or back with --reverse)",
		Args:  cobra.ExactArgs(1),
		RunE:  runWei,
	}
	cmd.Flags().Int32P("decimals", "d", 18, "token decimals")
	cmd.Flags().BoolP("reverse", "r", false, "convert base units to a decimal amount")
	return cmd
}

func addRoundFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64P("room", "r", 0, "room id")
	cmd.MarkFlagRequired("room")
	cmd.Flags().StringP("choices", "x", "", "packed integer or steal,split,split,steal,split")
	cmd.MarkFlagRequired("choices")
	cmd.Flags().StringP("salt", "s", "", "salt (64 hex digits)")
}

func roundInputs(cmd *cobra.Command) (uint64, uint8, string, error) {
	room, _ := cmd.Flags().GetUint64("room")
	choices, _ := cmd.Flags().GetString("choices")
	salt, _ := cmd.Flags().GetString("salt")
	if room == 0 {
		return 0, 0, "", errors.New("room id must be positive")
	}
	packed, err := approoms.ParseChoicesText(choices)
	if err != nil {
		return 0, 0, "", errors.Wrap(err, "parse choices")
	}
	return room, packed, salt, nil
}

func runCommit(cmd *cobra.Command, _ []string) error {
	room, packed, saltHex, err := roundInputs(cmd)
	if err != nil {
		return err
	}
	var salt commitment.Salt
	if saltHex == "" {
		salt, err = commitment.NewSalt()
	} else {
		salt, err = commitment.ParseSalt(saltHex)
	}
	if err != nil {
		return errors.Wrap(err, "salt")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "room:       %d\n", room)
	fmt.Fprintf(out, "choices:    %d %s\n", packed, describe(packed))
	fmt.Fprintf(out, "salt:       %s\n", salt.Hex())
	fmt.Fprintf(out, "commitment: %s\n", commitment.Commit(room, packed, salt).Hex())
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	room, packed, saltHex, err := roundInputs(cmd)
	if err != nil {
		return err
	}
	salt, err := commitment.ParseSalt(saltHex)
	if err != nil {
		return errors.Wrap(err, "salt")
	}
	raw, _ := cmd.Flags().GetString("commitment")
	want, err := commitment.ParseCommitment(raw)
	if err != nil {
		return errors.Wrap(err, "commitment")
	}
	if !commitment.Verify(room, packed, salt, want) {
		return errors.Errorf("commitment mismatch: got %s", commitment.Commit(room, packed, salt).Hex())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func runWei(cmd *cobra.Command, args []string) error {
	decimals, _ := cmd.Flags().GetInt32("decimals")
	reverse, _ := cmd.Flags().GetBool("reverse")
	if decimals < 0 {
		return errors.New("decimals must not be negative")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(args[0]))
	if err != nil {
		return errors.Wrap(err, "parse amount")
	}
	if d.Sign() < 0 {
		return errors.New("amount must not be negative")
	}
	if reverse {
		if !d.Equal(d.Truncate(0)) {
			return errors.New("base units must be whole")
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Shift(-decimals).String())
		return nil
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return errors.Errorf("%s has more than %d decimal places", args[0], decimals)
	}
	fmt.Fprintln(cmd.OutOrStdout(), units.String())
	return nil
}

func describe(packed uint8) string {
	rounds, err := commitment.Unpack(packed)
	if err != nil {
		return ""
	}
	words := make([]string, len(rounds))
	for i, steal := range rounds {
		if steal {
			words[i] = "steal"
		} else {
			words[i] = "split"
		}
	}
	return "[" + strings.Join(words, " ") + "]"
}
