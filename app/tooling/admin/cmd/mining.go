package cmd

import (
	"fmt"
	"log"

	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/spf13/cobra"
)

var miningCmd = &cobra.Command{
	Use:   "mining",
	Short: "Print the current mining work.",
	Run:   miningRun,
}

func init() {
	rootCmd.AddCommand(miningCmd)
}

func miningRun(cmd *cobra.Command, args []string) {
	ctx, cancel := cmdContext()
	defer cancel()

	info, err := nodeclient.New(url).MiningInfo(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("height     :", info.Height)
	fmt.Println("template   :", info.TemplateID)
	fmt.Printf("difficulty : %#08x\n", info.Difficulty)
	fmt.Println("target     :", info.Target)
	fmt.Printf("hashrate   : %.0f h/s\n", info.HashRate)
	fmt.Println("mempool    :", info.MempoolSize)
}
