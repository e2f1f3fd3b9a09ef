// Package seed carga el catálogo (productos, contenedores y motivos) desde un CSV exportado
// por el sistema de compras del restaurante. Los archivos heredados vienen en ISO-8859-1.
//
// Columnas (cabecera obligatoria, orden libre):
//
//	tipo,id,company_id,nombre,sku,categoria,unidad,kind,requiere_contenedor,permite_negativo,activo
//
// tipo es producto | contenedor | motivo. Un motivo con company_id vacío es compartido.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/insumos-api/internal/domain/entity"
)

// Writer destino de los registros del catálogo (Postgres o memoria).
type Writer interface {
	UpsertProduct(ctx context.Context, p *entity.Product) error
	UpsertContainer(ctx context.Context, c *entity.Container) error
	UpsertReason(ctx context.Context, r *entity.Reason) error
}

// Catalog registros leídos del archivo.
type Catalog struct {
	Products   []entity.Product
	Containers []entity.Container
	Reasons    []entity.Reason
}

// Len total de registros.
func (c *Catalog) Len() int {
	return len(c.Products) + len(c.Containers) + len(c.Reasons)
}

var requiredColumns = []string{"tipo", "id", "nombre"}

// LoadFile abre path y lo interpreta con ReadCSV.
func LoadFile(path string, latin1 bool) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, latin1)
}

// ReadCSV interpreta el CSV del catálogo. latin1 decodifica ISO-8859-1 a UTF-8.
func ReadCSV(r io.Reader, latin1 bool) (*Catalog, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	out := &Catalog{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row := csvRow{cols: cols, rec: rec}
		if err := out.add(row); err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
	}
	return out, nil
}

func (c *Catalog) add(row csvRow) error {
	id := row.get("id")
	if id == "" {
		return errors.New("id vacío")
	}
	active, err := row.boolean("activo", true)
	if err != nil {
		return err
	}
	switch tipo := strings.ToLower(row.get("tipo")); tipo {
	case "producto":
		c.Products = append(c.Products, entity.Product{
			ID:          id,
			CompanyID:   row.get("company_id"),
			CategoryID:  row.get("categoria"),
			SKU:         row.get("sku"),
			Name:        row.get("nombre"),
			UnitMeasure: row.get("unidad"),
			Active:      active,
		})
	case "contenedor":
		c.Containers = append(c.Containers, entity.Container{
			ID:        id,
			CompanyID: row.get("company_id"),
			Name:      row.get("nombre"),
			Active:    active,
		})
	case "motivo":
		kind := entity.MovementKind(strings.ToUpper(row.get("kind")))
		if !kind.Valid() {
			return fmt.Errorf("motivo %s: kind %q desconocido", id, row.get("kind"))
		}
		requires, err := row.boolean("requiere_contenedor", true)
		if err != nil {
			return err
		}
		negative, err := row.boolean("permite_negativo", false)
		if err != nil {
			return err
		}
		if negative && kind != entity.MovementKindAjuste {
			return fmt.Errorf("motivo %s: permite_negativo solo aplica a AJUSTE", id)
		}
		c.Reasons = append(c.Reasons, entity.Reason{
			ID:                id,
			CompanyID:         row.get("company_id"),
			Name:              row.get("nombre"),
			Kind:              kind,
			RequiresContainer: requires,
			AllowsNegative:    negative,
			Active:            active,
		})
	default:
		return fmt.Errorf("tipo %q desconocido", tipo)
	}
	return nil
}

// Apply escribe todos los registros en w. Contenedores y productos van antes que los motivos.
func (c *Catalog) Apply(ctx context.Context, w Writer) error {
	for i := range c.Containers {
		if err := w.UpsertContainer(ctx, &c.Containers[i]); err != nil {
			return fmt.Errorf("contenedor %s: %w", c.Containers[i].ID, err)
		}
	}
	for i := range c.Products {
		if err := w.UpsertProduct(ctx, &c.Products[i]); err != nil {
			return fmt.Errorf("producto %s: %w", c.Products[i].ID, err)
		}
	}
	for i := range c.Reasons {
		if err := w.UpsertReason(ctx, &c.Reasons[i]); err != nil {
			return fmt.Errorf("motivo %s: %w", c.Reasons[i].ID, err)
		}
	}
	return nil
}

type csvRow struct {
	cols map[string]int
	rec  []string
}

func (r csvRow) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) boolean(col string, def bool) (bool, error) {
	v := strings.ToLower(r.get(col))
	switch v {
	case "":
		return def, nil
	case "si", "sí", "s":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("columna %s: valor %q no es booleano", col, v)
	}
	return b, nil
}
