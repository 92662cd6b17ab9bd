package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"ShoeKeeper/internal/cli/model/view"
	"ShoeKeeper/internal/cli/service"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
)

// openShoes поднимает сервис записей и ждёт первый снимок не дольше RemoteTimeout.
func openShoes(ctx context.Context, cfg *config.Config) (*service.ShoeService, error) {
	svc := newApp(cfg).Shoes()
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	octx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := svc.Open(octx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: bad price %q", common.ErrValidation, s)
	}
	return d, nil
}

// renderTable печатает записи таблицей.
func renderTable(w io.Writer, rs []shoe.Record) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No shoes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY\tFAV\tIMAGE")
	for _, row := range view.FromRecords(rs) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.ID, row.Title, row.Price, row.Category, row.Favorite, row.Image)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total: %d\n", len(rs))
}

type listCmd struct{}

func (listCmd) Name() string        { return "list" }
func (listCmd) Description() string { return "Show your shoes" }
func (listCmd) Usage() string {
	return "list [--category=All|Sneakers|Boots|Formal|Running|Others] [--offline]"
}

func (listCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("list")
	category := fs.String("category", string(shoe.All), "category filter")
	offline := fs.Bool("offline", false, "print the cached snapshot without contacting the server")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	f, err := shoe.ParseFilter(*category)
	if err != nil {
		return err
	}

	if *offline {
		rs, syncedAt, err := newApp(cfg).Shoes().Offline(f)
		if err != nil {
			return err
		}
		if syncedAt.IsZero() {
			fmt.Fprintln(Out, "No cached snapshot")
			return nil
		}
		fmt.Fprintf(Out, "Cached snapshot from %s (may be stale)\n", syncedAt.Local().Format(time.DateTime))
		renderTable(Out, rs)
		return nil
	}

	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	renderTable(Out, svc.Records(f))
	return nil
}

type addCmd struct{}

func (addCmd) Name() string        { return "add" }
func (addCmd) Description() string { return "Add a pair of shoes" }
func (addCmd) Usage() string {
	return "add --title T --price P [--category C] [--image FILE|--image-ref URL]"
}

func (addCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("add")
	title := fs.String("title", "", "title")
	price := fs.String("price", "", "price")
	category := fs.String("category", string(shoe.DefaultCategory), "category")
	image := fs.String("image", "", "image file to upload")
	imageRef := fs.String("image-ref", "", "image URL")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *title == "" || *price == "" {
		return ErrUsage
	}
	if *image != "" && *imageRef != "" {
		return ErrUsage
	}
	p, err := parsePrice(*price)
	if err != nil {
		return err
	}
	c, err := shoe.ParseCategory(*category)
	if err != nil {
		return err
	}

	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	rec, err := svc.Add(ctx, shoe.Draft{Title: *title, Price: p, Category: c, ImageRef: *imageRef}, *image)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Added %s\n", rec.ID)
	return nil
}

type editCmd struct{}

func (editCmd) Name() string        { return "edit" }
func (editCmd) Description() string { return "Change fields of a pair" }
func (editCmd) Usage() string {
	return "edit <id> [--title T] [--price P] [--category C] [--image FILE|--image-ref URL]"
}

func (editCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	id := args[0]
	fs := newFlagSet("edit")
	title := fs.String("title", "", "title")
	price := fs.String("price", "", "price")
	category := fs.String("category", "", "category")
	image := fs.String("image", "", "image file to upload")
	imageRef := fs.String("image-ref", "", "image URL")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	if *image != "" && *imageRef != "" {
		return ErrUsage
	}

	var patch shoe.Patch
	var perr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "price":
			p, err := parsePrice(*price)
			if err != nil {
				perr = err
				return
			}
			patch.Price = &p
		case "category":
			c, err := shoe.ParseCategory(*category)
			if err != nil {
				perr = err
				return
			}
			patch.Category = &c
		case "image-ref":
			patch.ImageRef = imageRef
		}
	})
	if perr != nil {
		return perr
	}
	if patch.Empty() && *image == "" {
		return ErrUsage
	}

	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Edit(ctx, id, patch, *image); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Updated %s\n", id)
	return nil
}

type favCmd struct{}

func (favCmd) Name() string        { return "fav" }
func (favCmd) Description() string { return "Toggle the favorite mark" }
func (favCmd) Usage() string       { return "fav <id>" }

func (favCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	fav, err := svc.ToggleFavorite(ctx, args[0])
	if err != nil {
		return err
	}
	if fav {
		fmt.Fprintf(Out, "%s marked as favorite\n", args[0])
	} else {
		fmt.Fprintf(Out, "%s unmarked\n", args[0])
	}
	return nil
}

type rmCmd struct{}

func (rmCmd) Name() string        { return "rm" }
func (rmCmd) Description() string { return "Delete a pair" }
func (rmCmd) Usage() string       { return "rm <id>" }

func (rmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Removed %s\n", args[0])
	return nil
}

type watchCmd struct{}

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Re-print the list on every change until interrupted" }
func (watchCmd) Usage() string       { return "watch [--category=C]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("watch")
	category := fs.String("category", string(shoe.All), "category filter")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	f, err := shoe.ParseFilter(*category)
	if err != nil {
		return err
	}
	svc, err := openShoes(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Watch(ctx, f, func(rs []shoe.Record) {
		fmt.Fprintf(Out, "--- %s ---\n", time.Now().Format(time.TimeOnly))
		renderTable(Out, rs)
	})
}

func init() {
	RegisterCmd(listCmd{})
	RegisterCmd(addCmd{})
	RegisterCmd(editCmd{})
	RegisterCmd(favCmd{})
	RegisterCmd(rmCmd{})
	RegisterCmd(watchCmd{})
}
