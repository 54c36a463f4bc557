package cmd

import (
	"fmt"
	"log"

	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print a summary of the chain.",
	Run:   chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainRun(cmd *cobra.Command, args []string) {
	ctx, cancel := cmdContext()
	defer cancel()

	info, err := nodeclient.New(url).ChainInfo(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("chain id  :", info.ChainID)
	fmt.Println("name      :", info.Name)
	fmt.Println("height    :", info.Height)
	fmt.Println("tip hash  :", info.LatestHash)
	fmt.Printf("difficulty: %#08x\n", info.Difficulty)
}
