// seed carga productos, bodegas y saldos iniciales desde un CSV.
//
// Uso: go run ./cmd/seed [-latin1] [ruta/inventario.csv]
// Sin archivo carga un juego de datos de ejemplo.
// Columnas: sku,nombre,categoria,unidad,bodega,cantidad (la primera fila es cabecera).
// Cada saldo se registra como un ajuste con referencia SALDO-INICIAL.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/store"
	"github.com/jhoicas/stockmaster-api/pkg/config"
	"github.com/jhoicas/stockmaster-api/pkg/logger"
)

const sampleCSV = `sku,nombre,categoria,unidad,bodega,cantidad
TOR-01,Tornillo 1/4,Ferretería,und,Bodega Central,500
ARA-01,Arandela plana,Ferretería,und,Bodega Central,800
CAB-10,Cable THHN 12,Eléctricos,m,Bodega Norte,250.5
PIN-04,Pintura blanca,Acabados,gal,Bodega Norte,40
`

type seedRow struct {
	SKU       string
	Name      string
	Category  string
	Unit      string
	Warehouse string
	Quantity  decimal.Decimal
}

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	flag.Parse()

	var src io.Reader = strings.NewReader(sampleCSV)
	if path := flag.Arg(0); path != "" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
	}
	rows, err := parseSeed(src, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	backend, err := store.Open(ctx, cfg, log.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	catalog := inventory.NewRepositoryCatalog(backend.Products, backend.Warehouses)
	engine := inventory.NewEngine(backend.Runner, backend.Ledger, catalog, inventory.WithLogger(log.Component("engine")))

	loaded := 0
	for i, r := range rows {
		if err := loadRow(ctx, backend, engine, r); err != nil {
			log.Fatal().Err(err).Int("fila", i+2).Str("sku", r.SKU).Msg("cargar fila")
		}
		loaded++
	}
	log.Info().Int("filas", loaded).Msg("datos cargados")
}

// parseSeed lee el CSV. Con latin1 decodifica ISO-8859-1 a UTF-8.
func parseSeed(src io.Reader, latin1 bool) ([]seedRow, error) {
	if latin1 {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = 6
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("cabecera: %w", err)
	}
	var rows []seedRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		q, err := decimal.NewFromString(strings.TrimSpace(rec[5]))
		if err != nil || q.IsNegative() {
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[5])
		}
		row := seedRow{
			SKU:       strings.TrimSpace(rec[0]),
			Name:      strings.TrimSpace(rec[1]),
			Category:  strings.TrimSpace(rec[2]),
			Unit:      strings.TrimSpace(rec[3]),
			Warehouse: strings.TrimSpace(rec[4]),
			Quantity:  q,
		}
		if row.SKU == "" || row.Name == "" || row.Warehouse == "" {
			return nil, fmt.Errorf("línea %d: sku, nombre y bodega son requeridos", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// loadRow crea producto y bodega si no existen y registra el saldo inicial.
func loadRow(ctx context.Context, b *store.Backend, engine *inventory.Engine, r seedRow) error {
	now := time.Now()
	product, err := b.Products.GetBySKU(ctx, r.SKU)
	if err != nil {
		return err
	}
	if product == nil {
		product = &entity.Product{
			ID: uuid.New().String(), SKU: r.SKU, Name: r.Name, Category: r.Category,
			UnitOfMeasure: r.Unit, CreatedAt: now, UpdatedAt: now,
		}
		if err := b.Products.Create(ctx, product); err != nil {
			return err
		}
	}
	warehouse, err := b.Warehouses.GetByName(ctx, r.Warehouse)
	if err != nil {
		return err
	}
	if warehouse == nil {
		warehouse = &entity.Warehouse{ID: uuid.New().String(), Name: r.Warehouse, CreatedAt: now, UpdatedAt: now}
		if err := b.Warehouses.Create(ctx, warehouse); err != nil {
			return err
		}
	}
	if r.Quantity.IsZero() {
		return nil
	}
	_, err = engine.Adjustment(ctx, inventory.AdjustmentInput{
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Delta:       r.Quantity,
		Reference:   "SALDO-INICIAL",
		CreatedBy:   "seed",
	})
	return err
}
