package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3nav/internal/browser"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/objpath"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List buckets",
	Args:  cobra.NoArgs,
	RunE:  runBuckets,
}

var lsCmd = &cobra.Command{
	Use:   "ls s3://bucket[/prefix/]",
	Short: "List a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

var statCmd = &cobra.Command{
	Use:   "stat s3://bucket/key",
	Short: "Show an object's metadata and tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

var catCmd = &cobra.Command{
	Use:   "cat s3://bucket/key",
	Short: "Print an object as text, decompressing .gz keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

var putCmd = &cobra.Command{
	Use:   "put s3://bucket/key|prefix/ [FILE...]",
	Short: "Write text to a key, or upload local files under a prefix",
	Long: `With --text, or with no files, the content (or stdin) is stored at the
key, gzip-compressed when the key ends in .gz. With files, each is uploaded
under the prefix using its base name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPut,
}

var getCmd = &cobra.Command{
	Use:   "get s3://bucket/key [DEST]",
	Short: "Download an object to a local file or directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

var cpCmd = &cobra.Command{
	Use:   "cp s3://bucket/key s3://bucket/key",
	Short: "Copy an object, possibly across buckets",
	Args:  cobra.ExactArgs(2),
	RunE:  runCp,
}

var mvCmd = &cobra.Command{
	Use:   "mv s3://bucket/key s3://bucket/newkey",
	Short: "Rename an object within a bucket",
	Args:  cobra.ExactArgs(2),
	RunE:  runMv,
}

var rmCmd = &cobra.Command{
	Use:   "rm s3://bucket/key...",
	Short: "Delete objects, or whole folders with -r",
	Long:  "Delete objects. With -r each argument names a folder: s3://b/logs deletes everything under logs/.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir s3://bucket/prefix/",
	Short: "Create a folder marker",
	Args:  cobra.ExactArgs(1),
	RunE:  runMkdir,
}

func init() {
	lsCmd.Flags().BoolP("recursive", "r", false, "list every key below the prefix instead of one level")
	lsCmd.Flags().Bool("all", false, "follow continuation tokens and list every page")
	lsCmd.Flags().Int("max-keys", 0, "page size (1-1000, default from config)")
	lsCmd.Flags().String("token", "", "continuation token from a previous page")

	putCmd.Flags().String("text", "", "content to store at the key")

	rmCmd.Flags().BoolP("recursive", "r", false, "treat each argument as a folder and delete everything under it")

	rootCmd.AddCommand(bucketsCmd, lsCmd, statCmd, catCmd, putCmd, getCmd, cpCmd, mvCmd, rmCmd, mkdirCmd)
}

func runBuckets(cmd *cobra.Command, _ []string) error {
	a := mustApp(cmd)
	if err := a.activate(); err != nil {
		return err
	}
	buckets, err := unwrap(a.svc.ListBuckets(cmd.Context()))
	if err != nil {
		return err
	}
	return a.out.print(buckets, func() string { return renderBuckets(buckets) })
}

func renderBuckets(buckets []filestore.BucketInfo) string {
	if len(buckets) == 0 {
		return hintStyle.Render("No buckets.")
	}
	t := newTable("BUCKET", "CREATED")
	for _, b := range buckets {
		t.Row(b.Name, stamp(b.CreatedAt))
	}
	return t.String()
}

func runLs(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	if err := a.activate(); err != nil {
		return err
	}

	opts := browser.ListOptions{Prefix: loc.Key}
	opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	opts.MaxKeys, _ = cmd.Flags().GetInt("max-keys")
	opts.ContinuationToken, _ = cmd.Flags().GetString("token")

	if all, _ := cmd.Flags().GetBool("all"); all {
		listing, err := unwrap(a.svc.ListAllObjects(cmd.Context(), loc.Bucket, opts))
		if err != nil {
			return err
		}
		return a.out.print(listing, func() string {
			return renderEntries(listing.Folders, listing.Files)
		})
	}

	page, err := unwrap(a.svc.ListObjects(cmd.Context(), loc.Bucket, opts))
	if err != nil {
		return err
	}
	return a.out.print(page, func() string {
		s := renderEntries(page.Folders, page.Files)
		if page.IsTruncated {
			s += "\n" + hintStyle.Render("more results: --token "+page.ContinuationToken)
		}
		return s
	})
}

func renderEntries(folders, files []browser.Entry) string {
	if len(folders)+len(files) == 0 {
		return hintStyle.Render("Empty.")
	}
	t := newTable("NAME", "SIZE", "MODIFIED", "CLASS")
	for _, f := range folders {
		t.Row(folderStyle.Render(objpath.LeafName(f.Key)+"/"), "", "", "")
	}
	for _, f := range files {
		t.Row(f.Key, humanSize(f.Size), stamp(f.LastModified), f.StorageClass)
	}
	return t.String()
}

func runStat(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	if err := a.activate(); err != nil {
		return err
	}
	md, err := unwrap(a.svc.Metadata(cmd.Context(), loc.Bucket, loc.Key))
	if err != nil {
		return err
	}
	return a.out.print(md, func() string { return renderMetadata(md) })
}

func renderMetadata(md *browser.Metadata) string {
	t := newTable("FIELD", "VALUE")
	add := func(k, v string) {
		if v != "" {
			t.Row(k, v)
		}
	}
	add("Key", md.Key)
	add("Size", fmt.Sprintf("%s (%d bytes)", humanSize(md.Size), md.Size))
	add("Content-Type", md.ContentType)
	add("Content-Encoding", md.ContentEncoding)
	add("Cache-Control", md.CacheControl)
	add("Last-Modified", stamp(md.LastModified))
	if !md.Expires.IsZero() {
		add("Expires", stamp(md.Expires))
	}
	add("ETag", md.ETag)
	add("Storage-Class", md.StorageClass)
	add("Encryption", md.ServerSideEncryption)
	add("KMS-Key", md.KMSKeyID)
	add("Version", md.VersionID)
	for _, k := range sortedKeys(md.UserMetadata) {
		add("meta:"+k, md.UserMetadata[k])
	}
	for _, k := range sortedKeys(md.Tags) {
		add("tag:"+k, md.Tags[k])
	}
	return t.String()
}

func runCat(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	if err := a.activate(); err != nil {
		return err
	}
	text, err := unwrap(a.svc.ReadText(cmd.Context(), loc.Bucket, loc.Key))
	if err != nil {
		return err
	}
	if a.out.structured() {
		return a.out.print(map[string]string{"bucket": loc.Bucket, "key": loc.Key, "content": text}, nil)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), text)
	return err
}

func runPut(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	if err := a.activate(); err != nil {
		return err
	}

	files := args[1:]
	if len(files) == 0 {
		text, _ := cmd.Flags().GetString("text")
		if !cmd.Flags().Changed("text") {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, "failed to read stdin", err)
			}
			text = string(b)
		}
		if _, err := unwrap(a.svc.WriteText(cmd.Context(), loc.Bucket, loc.Key, text)); err != nil {
			return err
		}
		a.out.line("%s %s", okStyle.Render("wrote"), loc)
		return nil
	}

	progress := newProgress(cmd.ErrOrStderr(), "uploading", a.out.structured())
	outcome, err := unwrap(a.svc.UploadFiles(cmd.Context(), loc.Bucket, loc.Key, files, progress.update))
	progress.done()
	if outcome != nil {
		if perr := a.out.print(outcome, func() string {
			return renderResults(outcome.Results, fmt.Sprintf("%d uploaded, %d failed", outcome.UploadedCount, outcome.FailedCount))
		}); perr != nil {
			return perr
		}
	}
	if err == nil && outcome != nil && !outcome.Success {
		err = errs.Newf(errs.ErrKindQueryFailed, "%d of %d uploads failed", outcome.FailedCount, len(files))
	}
	return err
}

func runGet(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	dest := "."
	if len(args) == 2 {
		dest = args[1]
	}
	if err := a.activate(); err != nil {
		return err
	}
	dl, err := unwrap(a.svc.DownloadFile(cmd.Context(), loc.Bucket, loc.Key, dest))
	if err != nil {
		return err
	}
	return a.out.print(dl, func() string {
		return fmt.Sprintf("%s %s → %s (%s)", okStyle.Render("downloaded"), loc, dl.Path, humanSize(dl.Size))
	})
}

func runCp(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	src, err := location(args[0])
	if err != nil {
		return err
	}
	dst, err := location(args[1])
	if err != nil {
		return err
	}
	if objpath.IsFolder(dst.Key) || dst.Key == "" {
		dst.Key = objpath.Join(dst.Key, objpath.LeafName(src.Key))
	}
	if err := a.activate(); err != nil {
		return err
	}
	if _, err := unwrap(a.svc.CopyFile(cmd.Context(), src, dst)); err != nil {
		return err
	}
	a.out.line("%s %s → %s", okStyle.Render("copied"), src, dst)
	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	src, err := location(args[0])
	if err != nil {
		return err
	}
	dst, err := location(args[1])
	if err != nil {
		return err
	}
	if src.Bucket != dst.Bucket {
		return errs.New(errs.ErrKindInvalidInput, "mv renames within one bucket; use cp across buckets")
	}
	if objpath.IsFolder(dst.Key) || dst.Key == "" {
		dst.Key = objpath.Join(dst.Key, objpath.LeafName(src.Key))
	}
	if err := a.activate(); err != nil {
		return err
	}
	if _, err := unwrap(a.svc.RenameFile(cmd.Context(), src.Bucket, src.Key, dst.Key)); err != nil {
		return err
	}
	a.out.line("%s %s → %s", okStyle.Render("moved"), src, dst)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	locs := make([]objpath.Location, 0, len(args))
	for _, arg := range args {
		loc, err := location(arg)
		if err != nil {
			return err
		}
		if len(locs) > 0 && loc.Bucket != locs[0].Bucket {
			return errs.New(errs.ErrKindInvalidInput, "all keys must be in the same bucket")
		}
		locs = append(locs, loc)
	}
	if err := a.activate(); err != nil {
		return err
	}
	bucket := locs[0].Bucket

	if recursive, _ := cmd.Flags().GetBool("recursive"); recursive {
		for _, loc := range locs {
			progress := newProgress(cmd.ErrOrStderr(), "deleting "+loc.String(), a.out.structured())
			outcome, err := unwrap(a.svc.DeletePrefix(cmd.Context(), bucket, loc.Key, progress.update))
			progress.done()
			if err := reportDeletes(a, outcome, err); err != nil {
				return err
			}
		}
		return nil
	}

	keys := make([]string, len(locs))
	for i, loc := range locs {
		keys[i] = loc.Key
	}
	outcome, err := unwrap(a.svc.DeleteFiles(cmd.Context(), bucket, keys))
	return reportDeletes(a, outcome, err)
}

func reportDeletes(a *app, outcome *browser.DeleteOutcome, err error) error {
	if outcome != nil {
		if perr := a.out.print(outcome, func() string {
			return renderResults(outcome.Results, fmt.Sprintf("%d deleted, %d failed", outcome.DeletedCount, outcome.FailedCount))
		}); perr != nil {
			return perr
		}
	}
	if err == nil && outcome != nil && !outcome.Success {
		err = errs.Newf(errs.ErrKindQueryFailed, "%d deletions failed", outcome.FailedCount)
	}
	return err
}

func renderResults(results []browser.KeyResult, summary string) string {
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			continue
		}
		b.WriteString(errorStyle.Render("✗ ") + r.Key + ": " + r.Error + "\n")
	}
	b.WriteString(hintStyle.Render(summary))
	return b.String()
}

func runMkdir(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := location(args[0])
	if err != nil {
		return err
	}
	if err := a.activate(); err != nil {
		return err
	}
	key, err := unwrap(a.svc.CreateFolder(cmd.Context(), loc.Bucket, loc.Key))
	if err != nil {
		return err
	}
	a.out.line("%s s3://%s/%s", okStyle.Render("created"), loc.Bucket, key)
	return nil
}

// progress rewrites a single status line on stderr.
type progress struct {
	w     io.Writer
	label string
	quiet bool
	shown bool
}

func newProgress(w io.Writer, label string, quiet bool) *progress {
	if w == nil {
		w = os.Stderr
	}
	return &progress{w: w, label: label, quiet: quiet}
}

func (p *progress) update(done, total int) {
	if p.quiet {
		return
	}
	p.shown = true
	fmt.Fprintf(p.w, "\r%s %d/%d", hintStyle.Render(p.label), done, total)
}

func (p *progress) done() {
	if p.shown {
		fmt.Fprintln(p.w)
	}
}
