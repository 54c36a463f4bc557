package cmd

import (
	"fmt"
	"log"

	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/spf13/cobra"
)

var (
	from string
	to   string
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print blocks in a height range.",
	Run:   blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().StringVarP(&from, "from", "f", "latest", "First block height, or latest.")
	blocksCmd.Flags().StringVarP(&to, "to", "t", "latest", "Last block height, or latest.")
}

func blocksRun(cmd *cobra.Command, args []string) {
	ctx, cancel := cmdContext()
	defer cancel()

	blocks, err := nodeclient.New(url).Blocks(ctx, from, to)
	if err != nil {
		log.Fatal(err)
	}

	for _, block := range blocks {
		fmt.Printf("blk[%d] hash[%s] prev[%s] bits[%#08x] nonce[%d] txs[%d]\n",
			block.Header.Number, block.Hash, block.Header.PrevBlockHash,
			block.Header.Difficulty, block.Header.Nonce, len(block.Trans))
	}
}
