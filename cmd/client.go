// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/client"
	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServer = "http://localhost:3001"

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List buckets",
	Long:  `List the buckets stored on a node. Subcommands create and delete buckets.`,
	Args:  cobra.NoArgs,
	Run:   runBucketsList,
}

var bucketsCreateCmd = &cobra.Command{
	Use:   "create <bucket>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	Run:   runBucketsCreate,
}

var bucketsDeleteCmd = &cobra.Command{
	Use:   "delete <bucket>",
	Short: "Delete a bucket and every file in it",
	Args:  cobra.ExactArgs(1),
	Run:   runBucketsDelete,
}

var filesCmd = &cobra.Command{
	Use:   "files <bucket>",
	Short: "List the files in a bucket",
	Args:  cobra.ExactArgs(1),
	Run:   runFiles,
}

var putCmd = &cobra.Command{
	Use:   "put <bucket> <file>",
	Short: "Upload a file",
	Long:  `Upload a local file ("-" reads stdin). The node assigns the stored key and prints it.`,
	Args:  cobra.ExactArgs(2),
	Run:   runPut,
}

var getCmd = &cobra.Command{
	Use:   "get <bucket> <key>",
	Short: "Download a file, following redirects to the owning node",
	Args:  cobra.ExactArgs(2),
	Run:   runGet,
}

var statCmd = &cobra.Command{
	Use:   "stat <bucket> <key>",
	Short: "Show file metadata and the recorded owner",
	Args:  cobra.ExactArgs(2),
	Run:   runStat,
}

var rmCmd = &cobra.Command{
	Use:   "rm <bucket> <key>",
	Short: "Delete a file from the node",
	Args:  cobra.ExactArgs(2),
	Run:   runRm,
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Node registry commands",
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered nodes",
	Args:  cobra.NoArgs,
	Run:   runNodesList,
}

var nodesRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a node (defaults to the node receiving the request)",
	Args:  cobra.NoArgs,
	Run:   runNodesRegister,
}

func init() {
	for _, c := range []*cobra.Command{bucketsCmd, filesCmd, putCmd, getCmd, statCmd, rmCmd, nodesCmd} {
		rootCmd.AddCommand(c)
		c.PersistentFlags().String("server", defaultServer, "Gateway node URL. Env: ZAPGATE_SERVER")
		c.PersistentFlags().String("key", "", "API key sent in X-API-Key. Env: API_KEY")
		c.PersistentFlags().Duration("timeout", 30*time.Second, "Per request timeout")
	}
	bucketsCmd.AddCommand(bucketsCreateCmd, bucketsDeleteCmd)
	nodesCmd.AddCommand(nodesListCmd, nodesRegisterCmd)

	putCmd.Flags().String("name", "", "Original name to record (defaults to the file's base name)")
	getCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	nodesRegisterCmd.Flags().String("id", "", "Node id")
	nodesRegisterCmd.Flags().String("host", "", "Node host")
	nodesRegisterCmd.Flags().Int("port", 0, "Node port")
}

// newAPIClient builds a client from --server and --key, falling back to
// ZAPGATE_SERVER and API_KEY when the flags are not set.
func newAPIClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	if !cmd.Flags().Changed("server") {
		if v := viper.GetString("zapgate_server"); v != "" {
			server = v
		}
	}
	key, _ := cmd.Flags().GetString("key")
	if !cmd.Flags().Changed("key") {
		key = viper.GetString("api_key")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	c, err := client.New(client.Config{BaseURL: server, APIKey: key, Timeout: timeout})
	if err != nil {
		logger.Fatal().Err(err).Str("server", server).Msg("invalid server address")
	}
	return c
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runBucketsList(cmd *cobra.Command, args []string) {
	buckets, err := newAPIClient(cmd).ListBuckets(commandContext(cmd))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list buckets")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFILES\tSIZE\tCREATED\tMODIFIED")
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			b.Name, b.FileCount, humanize.Bytes(uint64(b.Size)), formatUnix(b.Created), formatUnix(b.Modified))
	}
	w.Flush()
}

func runBucketsCreate(cmd *cobra.Command, args []string) {
	if err := newAPIClient(cmd).CreateBucket(commandContext(cmd), args[0]); err != nil {
		logger.Fatal().Err(err).Str("bucket", args[0]).Msg("failed to create bucket")
	}
	fmt.Printf("Bucket %s created\n", args[0])
}

func runBucketsDelete(cmd *cobra.Command, args []string) {
	if err := newAPIClient(cmd).DeleteBucket(commandContext(cmd), args[0]); err != nil {
		logger.Fatal().Err(err).Str("bucket", args[0]).Msg("failed to delete bucket")
	}
	fmt.Printf("Bucket %s deleted\n", args[0])
}

func runFiles(cmd *cobra.Command, args []string) {
	files, err := newAPIClient(cmd).ListFiles(commandContext(cmd), args[0])
	if err != nil {
		logger.Fatal().Err(err).Str("bucket", args[0]).Msg("failed to list files")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tCREATED\tMODIFIED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, humanize.Bytes(uint64(f.Size)), formatUnix(f.Created), formatUnix(f.Modified))
	}
	w.Flush()
}

func runPut(cmd *cobra.Command, args []string) {
	bucket, path := args[0], args[1]
	name, _ := cmd.Flags().GetString("name")

	var src io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("failed to open file")
		}
		defer f.Close()
		src = f
		if name == "" {
			name = filepath.Base(path)
		}
	}

	uploaded, err := newAPIClient(cmd).Upload(commandContext(cmd), bucket, name, src)
	if err != nil {
		logger.Fatal().Err(err).Str("bucket", bucket).Msg("upload failed")
	}
	fmt.Printf("Uploaded %s\n", uploaded.Name)
	fmt.Printf("  Bucket:   %s\n", uploaded.Bucket)
	fmt.Printf("  Size:     %s\n", humanize.Bytes(uint64(uploaded.Size)))
	fmt.Printf("  SHA-256:  %s\n", uploaded.SHA256)
}

func runGet(cmd *cobra.Command, args []string) {
	bucket, key := args[0], args[1]
	output, _ := cmd.Flags().GetString("output")

	body, err := newAPIClient(cmd).Download(commandContext(cmd), bucket, key)
	if err != nil {
		logger.Fatal().Err(err).Str("bucket", bucket).Str("key", key).Msg("download failed")
	}
	defer body.Close()

	var dst io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			logger.Fatal().Err(err).Str("file", output).Msg("failed to create output file")
		}
		defer f.Close()
		dst = f
	}

	n, err := io.Copy(dst, body)
	if err != nil {
		logger.Fatal().Err(err).Msg("download interrupted")
	}
	if output != "" {
		fmt.Printf("Wrote %s to %s\n", humanize.Bytes(uint64(n)), output)
	}
}

func runStat(cmd *cobra.Command, args []string) {
	info, err := newAPIClient(cmd).Stat(commandContext(cmd), args[0], args[1])
	if err != nil {
		logger.Fatal().Err(err).Str("bucket", args[0]).Str("key", args[1]).Msg("stat failed")
	}
	fmt.Printf("File:      %s\n", info.Filename)
	fmt.Printf("Bucket:    %s\n", info.Bucket)
	fmt.Printf("Size:      %s (%d bytes)\n", humanize.Bytes(uint64(info.Size)), info.Size)
	fmt.Printf("Created:   %s\n", formatUnix(info.CreatedAt))
	fmt.Printf("Modified:  %s\n", formatUnix(info.ModifiedAt))
	if info.Location != nil {
		fmt.Printf("Owner:     %s\n", info.Location.String())
	} else {
		fmt.Printf("Owner:     unknown\n")
	}
}

func runRm(cmd *cobra.Command, args []string) {
	if err := newAPIClient(cmd).DeleteFile(commandContext(cmd), args[0], args[1]); err != nil {
		logger.Fatal().Err(err).Str("bucket", args[0]).Str("key", args[1]).Msg("delete failed")
	}
	fmt.Printf("Deleted %s/%s\n", args[0], args[1])
}

func runNodesList(cmd *cobra.Command, args []string) {
	nodes, err := newAPIClient(cmd).ListNodes(commandContext(cmd))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list nodes")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tADDRESS")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\n", n.ID, n.Address())
	}
	w.Flush()
}

func runNodesRegister(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	n := types.NodeDescriptor{ID: id, Host: host, Port: port}
	if err := newAPIClient(cmd).RegisterNode(commandContext(cmd), n); err != nil {
		logger.Fatal().Err(err).Msg("failed to register node")
	}
	fmt.Println("Node registered")
}

// formatUnix renders the gateway's unix-seconds timestamps; anything else is
// printed as received.
func formatUnix(s string) string {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return s
	}
	return humanize.Time(time.Unix(secs, 0))
}
