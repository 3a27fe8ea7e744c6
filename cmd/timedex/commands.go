package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/index"
	"github.com/graphtide/timedex/store"
)

var errTimeParse = errors.New("could not parse time")

// blobEntry adapts an already-stored payload blob to index.Entry.
type blobEntry struct {
	at  time.Time
	ref timedex.Ref
}

func (e blobEntry) Time() time.Time  { return e.at }
func (e blobEntry) Ref() timedex.Ref { return e.ref }

func (c maincmd) initGenesis(ctx context.Context, fs *flag.FlagSet, args []string) error {
	fromstr := fs.String("from", "", "start of the genesis chunk (default: now, truncated to the interval)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	from := time.Now().UTC()
	if *fromstr != "" {
		from, err = parsetime(*fromstr)
		if err != nil {
			return errors.Wrap(err, "parsing -from")
		}
	}

	ch, err := c.ix.Chunks().Owning(ctx, c.ix.Name(), from)
	if err != nil {
		return errors.Wrap(err, "creating genesis chunk")
	}
	fmt.Printf("%s %s..%s\n", ch.Ref(), ch.From.Format(time.RFC3339), ch.Until.Format(time.RFC3339))
	return nil
}

func (c maincmd) add(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		atstr  = fs.String("time", "", "timestamp to index the payload under (default: now)")
		tag    = fs.String("tag", "entry", "link tag")
		author = fs.String("author", "", "author identity")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *author == "" {
		return errors.New("must supply -author")
	}

	at := time.Now().UTC()
	if *atstr != "" {
		at, err = parsetime(*atstr)
		if err != nil {
			return errors.Wrap(err, "parsing -time")
		}
	}

	var payload []byte
	if fs.NArg() > 0 {
		payload, err = ioutil.ReadFile(fs.Arg(0))
		if err != nil {
			return errors.Wrapf(err, "reading %s", fs.Arg(0))
		}
	} else {
		payload, err = ioutil.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
	}

	ref, added, err := c.s.Put(ctx, timedex.Blob(payload))
	if err != nil {
		return errors.Wrap(err, "storing payload")
	}

	err = c.ix.Add(ctx, blobEntry{at: at, ref: ref}, *tag, *author)
	if err != nil {
		return errors.Wrap(err, "indexing payload")
	}
	fmt.Printf("%s added=%v\n", ref, added)
	return nil
}

func (c maincmd) current(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tag   = fs.String("tag", "", "restrict links to this tag")
		limit = fs.Int("limit", 0, "maximum links to collect (0 = unlimited)")
	)
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parsing args")
	}
	cl, ok, err := c.ix.Current(ctx, *tag, *limit)
	if err != nil {
		return errors.Wrap(err, "getting current chunk")
	}
	if !ok {
		fmt.Println("no chunk in the current time window")
		return nil
	}
	printChunkLinks(cl)
	return nil
}

func (c maincmd) latest(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tag   = fs.String("tag", "", "restrict links to this tag")
		limit = fs.Int("limit", 0, "maximum links to collect (0 = unlimited)")
	)
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parsing args")
	}
	cl, ok, err := c.ix.MostRecent(ctx, *tag, *limit)
	if err != nil {
		return errors.Wrap(err, "getting most recent chunk")
	}
	if !ok {
		fmt.Println("no chunks committed yet")
		return nil
	}
	printChunkLinks(cl)
	return nil
}

func (c maincmd) between(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		fromstr  = fs.String("from", "", "start of the window")
		untilstr = fs.String("until", "", "end of the window (default: now)")
		tag      = fs.String("tag", "", "restrict links to this tag")
		limit    = fs.Int("limit", 0, "maximum links to collect per chunk (0 = unlimited)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *fromstr == "" {
		return errors.New("must supply -from")
	}
	from, err := parsetime(*fromstr)
	if err != nil {
		return errors.Wrap(err, "parsing -from")
	}
	until := time.Now().UTC()
	if *untilstr != "" {
		until, err = parsetime(*untilstr)
		if err != nil {
			return errors.Wrap(err, "parsing -until")
		}
	}

	results, err := c.ix.Between(ctx, from, until, *tag, *limit)
	if err != nil {
		return errors.Wrap(err, "querying window")
	}
	for _, cl := range results {
		printChunkLinks(cl)
	}
	return nil
}

// links collects the attachments of one chunk, given its ref in hex.
func (c maincmd) links(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tag   = fs.String("tag", "", "restrict links to this tag")
		limit = fs.Int("limit", 0, "maximum links to collect (0 = unlimited)")
	)
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if fs.NArg() == 0 {
		return errors.New("must supply a chunk ref")
	}
	ref, err := timedex.RefFromHex(fs.Arg(0))
	if err != nil {
		return errors.Wrapf(err, "parsing ref %s", fs.Arg(0))
	}

	ch, ok, err := c.ix.Chunks().Get(ctx, ref)
	if err != nil {
		return errors.Wrap(err, "getting chunk")
	}
	if !ok {
		return errors.Errorf("no chunk at %s", ref)
	}

	links, err := c.ix.Links().Collect(ctx, ref, *tag, *limit)
	if err != nil {
		return errors.Wrap(err, "collecting links")
	}
	printChunkLinks(index.ChunkLinks{Chunk: ch, Links: links})
	return nil
}

// chunks lists every chunk record in the store by scanning refs and
// decoding the ones that parse as chunks.
func (c maincmd) chunks(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parsing args")
	}
	return c.s.ListRefs(ctx, timedex.Zero, func(ref timedex.Ref) error {
		b, err := c.s.Get(ctx, ref)
		if err != nil {
			return errors.Wrapf(err, "getting %s", ref)
		}
		var rec struct {
			Type  string `json:"type"`
			From  int64  `json:"from"`
			Until int64  `json:"until"`
		}
		if err := json.Unmarshal(b, &rec); err != nil || rec.Type != "chunk" {
			return nil
		}
		fmt.Printf("%s %s..%s\n",
			ref,
			time.Unix(0, rec.From).UTC().Format(time.RFC3339),
			time.Unix(0, rec.Until).UTC().Format(time.RFC3339),
		)
		return nil
	})
}

func (c maincmd) sync(ctx context.Context, fs *flag.FlagSet, args []string) error {
	otherPath := fs.String("other", "", "path to the other store's config file")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *otherPath == "" {
		return errors.New("must supply -other")
	}

	conf, err := readConfig(*otherPath)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", *otherPath)
	}
	typ, ok := conf["type"].(string)
	if !ok {
		return errors.Errorf("config file %s missing `type` parameter", *otherPath)
	}
	other, err := store.Create(ctx, typ, conf)
	if err != nil {
		return errors.Wrapf(err, "creating %s-type store", typ)
	}

	return store.Sync(ctx, []timedex.Store{c.s, other})
}

func printChunkLinks(cl index.ChunkLinks) {
	fmt.Printf("chunk %s %s..%s (%d links)\n",
		cl.Chunk.Ref(),
		cl.Chunk.From.Format(time.RFC3339),
		cl.Chunk.Until.Format(time.RFC3339),
		len(cl.Links),
	)
	for _, l := range cl.Links {
		fmt.Printf("  %s\n", l)
	}
}
