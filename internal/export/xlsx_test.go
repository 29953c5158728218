package export

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"reelharvest/internal/normalize"
)

func TestWriteProducesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments", "entry.xlsx")
	records := []normalize.Record{
		{
			Text:            "so good",
			CreatedAt:       "09-03-2024",
			LikeCount:       12,
			ReplyCount:      3,
			AuthorLiked:     true,
			Author:          &normalize.Author{Username: "foodie", DisplayName: "Foodie Fan", Bio: "eats", AvatarLocator: "https://cdn.example.com/a.jpg"},
			AvatarPath:      "/out/user_cover_img/foodie_1234abcd.jpg",
			EngagementScore: 18,
		},
		{Text: "no author"},
	}
	if err := (XLSX{}).Write(records, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected no leftover .part file, got %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{SheetName}) {
		t.Fatalf("unexpected sheets %v", got)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Headers) {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{"so good", "09-03-2024", "12", "3", "Yes", "foodie", "Foodie Fan", "eats", "https://cdn.example.com/a.jpg", "/out/user_cover_img/foodie_1234abcd.jpg", "18"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Fatalf("unexpected row %v", rows[1])
	}
	if rows[2][0] != "no author" || rows[2][4] != "No" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestWriteSetsCappedColumnWidths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.xlsx")
	records := []normalize.Record{{Text: strings.Repeat("x", 200)}}
	if err := (XLSX{}).Write(records, path); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	width, err := f.GetColWidth(SheetName, "A")
	if err != nil {
		t.Fatal(err)
	}
	if width != 50 {
		t.Fatalf("expected capped width 50, got %v", width)
	}
	width, err = f.GetColWidth(SheetName, "B")
	if err != nil {
		t.Fatal(err)
	}
	if width != float64(len("Created At")+2) {
		t.Fatalf("expected header-driven width, got %v", width)
	}
}

func TestPaths(t *testing.T) {
	ranked, all := Paths("/out/x/comments", "x")
	if ranked != "/out/x/comments/x.xlsx" || all != "/out/x/comments/x_all.xlsx" {
		t.Fatalf("unexpected paths %q %q", ranked, all)
	}
}
