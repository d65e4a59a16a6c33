package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/assets"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
)

var (
	demoStartPrice   uint64
	demoSellAmount   uint64
	demoDurationSecs uint64
)

// demoCmd runs a complete scripted auction lifecycle against in-memory
// token ledgers, advancing a synthetic clock instead of sleeping.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted auction lifecycle",
	Long: `Run a complete reverse Dutch auction lifecycle in-process:

1. Seed two token ledgers (SOLD held by alice, PAID held by bob)
2. alice creates an auction, escrowing her SOLD
3. The price decays as the clock advances
4. bob executes at the halfway price
5. alice creates and cancels a second auction

Balances are printed after each step. No server is started and nothing
is persisted.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Uint64Var(&demoStartPrice, "start-price", 3600, "starting price in PAID units")
	demoCmd.Flags().Uint64Var(&demoSellAmount, "sell-amount", 100, "SOLD quantity to auction")
	demoCmd.Flags().Uint64Var(&demoDurationSecs, "duration", 3600, "decay window in seconds")
}

func runDemo(cmd *cobra.Command, args []string) error {
	now := time.Now()
	clock := func() time.Time { return now }

	sold := assets.NewTokenLedger("SOLD")
	paid := assets.NewTokenLedger("PAID")
	sold.Mint("alice", 1_000)
	paid.Mint("bob", 10_000)
	sold.Approve("alice", auction.EscrowAccount, 1_000)
	paid.Approve("bob", auction.EscrowAccount, 10_000)

	registry := assets.MapRegistry{
		"SOLD": sold.Binding(auction.EscrowAccount),
		"PAID": paid.Binding(auction.EscrowAccount),
	}
	ledger := auction.NewLedger(registry, auction.WithClock(clock))

	printBalances := func(label string) {
		fmt.Printf("--- %s\n", label)
		for _, account := range []string{"alice", "bob", auction.EscrowAccount} {
			soldBal, _ := sold.BalanceOf(account)
			paidBal, _ := paid.BalanceOf(account)
			fmt.Printf("    %-14s %6d SOLD  %6d PAID\n", account, soldBal, paidBal)
		}
	}

	printBalances("initial balances")

	rate := demoStartPrice / demoDurationSecs
	if rate == 0 {
		rate = 1
	}

	id, err := ledger.Create(auction.CreateParams{
		Seller:       "alice",
		SellAsset:    "SOLD",
		BuyAsset:     "PAID",
		SellAmount:   demoSellAmount,
		StartPrice:   demoStartPrice,
		Duration:     time.Duration(demoDurationSecs) * time.Second,
		DecreaseRate: rate,
	})
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	fmt.Printf("alice created auction %d: %d SOLD at %d PAID, decaying over %ds\n",
		id, demoSellAmount, demoStartPrice, demoDurationSecs)
	printBalances("after escrow")

	// Sample the decay curve
	steps := []uint64{0, demoDurationSecs / 4, demoDurationSecs / 2}
	start := now
	for _, elapsed := range steps {
		now = start.Add(time.Duration(elapsed) * time.Second)
		price, err := ledger.CurrentPrice(id)
		if err != nil {
			return fmt.Errorf("price query failed: %w", err)
		}
		fmt.Printf("t+%4ds: price %d PAID\n", elapsed, price)
	}

	// bob executes at the halfway price
	if err := ledger.Execute("bob", id); err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	record, err := ledger.Get(id)
	if err != nil {
		return err
	}
	fmt.Printf("bob executed auction %d at %d PAID\n", id, record.FinalPrice)
	printBalances("after execution")

	// Second auction: created then cancelled, escrow returns
	id2, err := ledger.Create(auction.CreateParams{
		Seller:       "alice",
		SellAsset:    "SOLD",
		BuyAsset:     "PAID",
		SellAmount:   demoSellAmount,
		StartPrice:   demoStartPrice,
		Duration:     time.Duration(demoDurationSecs) * time.Second,
		DecreaseRate: rate,
	})
	if err != nil {
		return fmt.Errorf("second create failed: %w", err)
	}
	fmt.Printf("alice created auction %d\n", id2)
	printBalances("after second escrow")

	if err := ledger.Cancel("alice", id2); err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}
	fmt.Printf("alice cancelled auction %d, escrow returned\n", id2)
	printBalances("final balances")

	return nil
}
