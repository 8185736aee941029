package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSVReaderReadsRequiredColumns(t *testing.T) {
	input := "\ufeffproduct_name,price,rating,reviews,category_url,extra\n" +
		"Drone X,19.99,4.5,123 reviews,https://shop/drones,ignored\n" +
		"\"Cable, USB\",abc,,no data,https://shop/cables\n" +
		"Short row,5\n"

	products, err := NewCSVReader(',').Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: unexpected error %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("rows: got %d, want 3", len(products))
	}

	if products[0].ProductName != "Drone X" || products[0].Price != "19.99" || products[0].Reviews != "123 reviews" {
		t.Errorf("row 0: got %+v", products[0])
	}
	if products[1].ProductName != "Cable, USB" || products[1].Price != "abc" {
		t.Errorf("row 1: quoted fields not preserved: %+v", products[1])
	}
	if products[2].Rating != "" || products[2].CategoryURL != "" {
		t.Errorf("row 2: short row should leave fields empty: %+v", products[2])
	}
}

func TestCSVReaderColumnOrderIndependent(t *testing.T) {
	input := "category_url;reviews;rating;price;product_name\nc1;7 sold;4;10;Lamp\n"

	products, err := NewCSVReader(';').Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: unexpected error %v", err)
	}
	p := products[0]
	if p.ProductName != "Lamp" || p.Price != "10" || p.Rating != "4" || p.Reviews != "7 sold" || p.CategoryURL != "c1" {
		t.Errorf("got %+v", p)
	}
}

func TestCSVReaderMissingColumnIsFatal(t *testing.T) {
	input := "product_name,price,reviews\nA,1,2\n"

	_, err := NewCSVReader(',').Read(strings.NewReader(input))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Read: got %v, want ErrMissingColumn", err)
	}
	for _, col := range []string{"rating", "category_url"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q should name missing column %q", err, col)
		}
	}
}

func TestCSVReaderEmptyInput(t *testing.T) {
	_, err := NewCSVReader(',').Read(strings.NewReader(""))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Read: got %v, want ErrEmptyInput", err)
	}
}

func TestCSVReaderHeaderOnly(t *testing.T) {
	products, err := NewCSVReader(',').Read(strings.NewReader("product_name,price,rating,reviews,category_url\n"))
	if err != nil {
		t.Fatalf("Read: unexpected error %v", err)
	}
	if len(products) != 0 {
		t.Errorf("rows: got %d, want 0", len(products))
	}
}

func TestCSVReaderReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	data := "product_name,price,rating,reviews,category_url\nA,1,2,3,c\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	products, err := NewCSVReader(0).ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: unexpected error %v", err)
	}
	if len(products) != 1 {
		t.Errorf("rows: got %d, want 1", len(products))
	}

	if _, err := NewCSVReader(',').ReadFile(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("ReadFile on missing file should fail")
	}
}
