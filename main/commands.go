// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/config"
	"github.com/chain4travel/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           botvm.Name,
		Short:         "Runs a chain of governed tokens",
		Version:       botvm.Version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(root.PersistentFlags())
	root.AddCommand(
		newRunCommand(),
		newGenesisCommand(),
		newQueryCommand(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	return config.GetConfig(v)
}

// withNode runs [f] against a node built from the flags of [cmd].
func withNode(cmd *cobra.Command, f func(*node) error) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(c.Log)
	if err != nil {
		return err
	}
	defer log.Stop()

	n, err := newNode(c, log)
	if err != nil {
		log.Error("couldn't start node", zap.Error(err))
		return err
	}
	err = f(n)
	if c.MetricsFile != "" {
		if metricsErr := n.writeMetrics(c.MetricsFile); metricsErr != nil {
			log.Warn("couldn't write metrics", zap.Error(metricsErr))
		}
	}
	if closeErr := n.close(); err == nil {
		err = closeErr
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "\t")
	return encoder.Encode(v)
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script]",
		Short: "Initializes the chain and issues the txs of a JSON script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(n *node) error {
				if len(args) == 0 {
					lastAccepted, err := n.vm.LastAccepted()
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), map[string]ids.ID{"lastAccepted": lastAccepted})
				}

				file, err := os.Open(filepath.Clean(args[0]))
				if err != nil {
					return err
				}
				defer file.Close()
				script, err := ParseScript(file)
				if err != nil {
					return err
				}
				results, err := newRunner(n.vm, n.log).Run(script)
				if writeErr := writeJSON(cmd.OutOrStdout(), results); err == nil {
					err = writeErr
				}
				return err
			})
		},
	}
}

func newGenesisCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Prints the genesis a new chain starts from, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			gen, err := loadGenesis(c.Genesis, time.Now())
			if err != nil {
				return err
			}
			genesisJSON, err := genesis.ToJSON(gen)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(genesisJSON))
			return err
		},
	}
}

func newQueryCommand() *cobra.Command {
	query := &cobra.Command{
		Use:   "query",
		Short: "Reads the state of the last accepted tx",
	}
	query.AddCommand(
		&cobra.Command{
			Use:   "token <token> [account...]",
			Short: "Prints a token and the balances of [account...]",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNode(cmd, func(n *node) error {
					info, err := tokenInfo(n.vm, args[0], args[1:])
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), info)
				})
			},
		},
		&cobra.Command{
			Use:   "dao <dao> [proposal...]",
			Short: "Prints a dao and the proposals [proposal...]",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNode(cmd, func(n *node) error {
					info, err := daoInfo(n.vm, args[0], args[1:])
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), info)
				})
			},
		},
		&cobra.Command{
			Use:   "native <account...>",
			Short: "Prints the native balances of [account...]",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNode(cmd, func(n *node) error {
					balances, err := nativeBalances(n.vm, args)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), balances)
				})
			},
		},
		&cobra.Command{
			Use:   "finishable",
			Short: "Prints the proposals whose voting period is over",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withNode(cmd, func(n *node) error {
					refs, err := n.vm.FinishableProposals()
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), refs)
				})
			},
		},
	)
	return query
}

type TokenInfo struct {
	ID                ids.ShortID             `json:"id"`
	Token             *state.Token            `json:"token"`
	CirculationSupply *uint256.Int            `json:"circulationSupply"`
	Holders           uint64                  `json:"holders"`
	Balances          map[string]*uint256.Int `json:"balances,omitempty"`
}

func tokenInfo(vm *botvm.VM, tokenAddr string, accounts []string) (*TokenInfo, error) {
	tokenID, err := genesis.ParseAddress(tokenAddr)
	if err != nil {
		return nil, err
	}
	ledger, err := vm.Ledger(tokenID)
	if err != nil {
		return nil, err
	}

	info := &TokenInfo{
		ID:       tokenID,
		Balances: make(map[string]*uint256.Int, len(accounts)),
	}
	if info.Token, err = ledger.Metadata(); err != nil {
		return nil, err
	}
	if info.CirculationSupply, err = ledger.CirculationSupply(); err != nil {
		return nil, err
	}
	if info.Holders, err = ledger.NumberOfHolders(); err != nil {
		return nil, err
	}
	for _, account := range accounts {
		addr, err := genesis.ParseAddress(account)
		if err != nil {
			return nil, err
		}
		if info.Balances[genesis.FormatAddress(addr)], err = ledger.BalanceOf(addr); err != nil {
			return nil, err
		}
	}
	return info, nil
}

type DAOInfo struct {
	ID        ids.ShortID       `json:"id"`
	DAO       *state.DAO        `json:"dao"`
	Proposals []*state.Proposal `json:"proposals,omitempty"`
}

func daoInfo(vm *botvm.VM, daoAddr string, proposalIDs []string) (*DAOInfo, error) {
	daoID, err := genesis.ParseAddress(daoAddr)
	if err != nil {
		return nil, err
	}
	engine, err := vm.DAO(daoID)
	if err != nil {
		return nil, err
	}

	info := &DAOInfo{
		ID:        daoID,
		Proposals: make([]*state.Proposal, 0, len(proposalIDs)),
	}
	if info.DAO, err = engine.Metadata(); err != nil {
		return nil, err
	}
	for _, proposalID := range proposalIDs {
		id, err := cast.ToUint64E(proposalID)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", dao.ErrProposalNotFound, proposalID)
		}
		proposal, err := engine.Proposal(id)
		if err != nil {
			return nil, err
		}
		info.Proposals = append(info.Proposals, proposal)
	}
	return info, nil
}

func nativeBalances(vm *botvm.VM, accounts []string) (map[string]*uint256.Int, error) {
	balances := make(map[string]*uint256.Int, len(accounts))
	for _, account := range accounts {
		addr, err := genesis.ParseAddress(account)
		if err != nil {
			return nil, err
		}
		if balances[genesis.FormatAddress(addr)], err = vm.NativeBalance(addr); err != nil {
			return nil, err
		}
	}
	return balances, nil
}
