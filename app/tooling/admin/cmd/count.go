package cmd

import (
	"fmt"
	"log"

	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of blocks in the chain.",
	Run:   countRun,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func countRun(cmd *cobra.Command, args []string) {
	ctx, cancel := cmdContext()
	defer cancel()

	count, err := nodeclient.New(url).BlockCount(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(count)
}
