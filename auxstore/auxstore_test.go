package auxstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"massbank-harvester/internal/pgtest"
	"massbank-harvester/models"
)

func TestMain(m *testing.M) {
	code := m.Run()
	pgtest.Terminate()
	os.Exit(code)
}

func testWriter(t *testing.T) *Writer {
	t.Helper()
	dsn := pgtest.DSN(t, "TEST_AUX_DATABASE_DSN")
	w := New(dsn, zap.NewNop())
	require.NoError(t, w.Migrate())
	t.Cleanup(func() {
		db, closeDB, err := w.open()
		if err != nil {
			return
		}
		defer closeDB()
		db.Where("package_id = ?", "auxstore-test").Delete(&models.RelatedResource{})
		db.Where("package_id = ?", "auxstore-test").Delete(&models.MoleculeData{})
	})
	return w
}

func TestWriteMoleculeInsertsOnce(t *testing.T) {
	w := testWriter(t)
	ctx := context.Background()
	fact := models.MoleculeData{
		PackageID:  "auxstore-test",
		InChIJSON:  `"InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3"`,
		Smiles:     "CCO",
		InChIKey:   "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
		ExactMass:  "46.041865",
		MolFormula: "C2H6O",
	}
	names := []string{"Ethyl alcohol", "Alcohol"}

	require.NoError(t, w.WriteMolecule(ctx, fact, names))
	changed := fact
	changed.Smiles = "OCC"
	require.NoError(t, w.WriteMolecule(ctx, changed, append(names, "Ethanol")))

	db, closeDB, err := w.open()
	require.NoError(t, err)
	defer closeDB()

	var rows []models.MoleculeData
	require.NoError(t, db.Where("package_id = ?", "auxstore-test").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "CCO", rows[0].Smiles)

	var related int64
	db.Model(&models.RelatedResource{}).Where("package_id = ?", "auxstore-test").Count(&related)
	assert.Equal(t, int64(3), related)
}

func TestWriteMoleculeKeepsCommittedRowsOnError(t *testing.T) {
	w := testWriter(t)
	ctx := context.Background()
	fact := models.MoleculeData{PackageID: "auxstore-test", InChIKey: "LFQSCWFLJHTTHZ-UHFFFAOYSA-N"}

	// Postgres lehnt NUL-Bytes in Textspalten ab.
	err := w.WriteMolecule(ctx, fact, []string{"Ethyl alcohol", "bad\x00name"})
	require.Error(t, err)

	db, closeDB, err := w.open()
	require.NoError(t, err)
	defer closeDB()

	var molecules, related int64
	db.Model(&models.MoleculeData{}).Where("package_id = ?", "auxstore-test").Count(&molecules)
	db.Model(&models.RelatedResource{}).Where("package_id = ?", "auxstore-test").Count(&related)
	assert.Equal(t, int64(1), molecules)
	assert.Equal(t, int64(1), related)

	require.NoError(t, w.WriteMolecule(ctx, fact, []string{"Ethyl alcohol", "Alcohol"}))
	db.Model(&models.RelatedResource{}).Where("package_id = ?", "auxstore-test").Count(&related)
	assert.Equal(t, int64(2), related)
}

func TestOpenFailsForBadDSN(t *testing.T) {
	if testing.Short() {
		t.Skip("opens a network connection")
	}
	w := New("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1", zap.NewNop())
	err := w.WriteMolecule(context.Background(), models.MoleculeData{PackageID: "x"}, nil)
	assert.Error(t, err)
}
