package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/application/apptest"
	"github.com/oksasatya/civic-report/internal/domain/entity"
)

func strPtr(s string) *string { return &s }

func TestCategoryService_Create(t *testing.T) {
	cases := []struct {
		name    string
		in      application.CategoryInput
		wantErr string
	}{
		{"ok", application.CategoryInput{Name: " Health ", Description: strPtr("clinics")}, ""},
		{"blank description becomes nil", application.CategoryInput{Name: "Parks", Description: strPtr("  ")}, ""},
		{"blank name", application.CategoryInput{Name: "  "}, "name"},
		{"long name", application.CategoryInput{Name: strings.Repeat("n", 256)}, "name"},
		{"long description", application.CategoryInput{Name: "X", Description: strPtr(strings.Repeat("d", 1001))}, "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := application.NewCategoryService(apptest.NewStore().Categories(), quietLogger())
			c, err := svc.Create(context.Background(), tc.in)
			if tc.wantErr != "" {
				var verr *application.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, c.ID)
			assert.Equal(t, strings.TrimSpace(tc.in.Name), c.Name)
		})
	}
}

func TestCategoryService_BlankDescriptionStoredAsNil(t *testing.T) {
	svc := application.NewCategoryService(apptest.NewStore().Categories(), quietLogger())
	c, err := svc.Create(context.Background(), application.CategoryInput{Name: "Parks", Description: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, c.Description)
}

func TestCategoryService_DuplicateName(t *testing.T) {
	store := apptest.NewStore()
	svc := application.NewCategoryService(store.Categories(), quietLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, application.CategoryInput{Name: "Health"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, application.CategoryInput{Name: "Roads"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, application.CategoryInput{Name: "Health"})
	var cerr *application.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "name", cerr.Field)

	_, err = svc.Update(ctx, other.ID, application.CategoryInput{Name: "Health"})
	require.ErrorAs(t, err, &cerr)
}

func TestCategoryService_Update(t *testing.T) {
	store := apptest.NewStore()
	svc := application.NewCategoryService(store.Categories(), quietLogger())
	ctx := context.Background()
	c := store.AddCategory("Enviroment")

	got, err := svc.Update(ctx, c.ID, application.CategoryInput{Name: "Environment", Description: strPtr("air and water")})
	require.NoError(t, err)
	assert.Equal(t, "Environment", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "air and water", *got.Description)

	_, err = svc.Update(ctx, 999, application.CategoryInput{Name: "Nope"})
	var nerr *application.NotFoundError
	assert.ErrorAs(t, err, &nerr)
}

func TestCategoryService_Delete(t *testing.T) {
	store := apptest.NewStore()
	svc := application.NewCategoryService(store.Categories(), quietLogger())
	ctx := context.Background()
	u := store.AddUser("Citizen", entity.RoleUser)
	used := store.AddCategory("Used")
	unused := store.AddCategory("Unused")
	store.AddReport(u.ID, used.ID, "r1")
	store.AddReport(u.ID, used.ID, "r2")

	t.Run("referenced category is kept", func(t *testing.T) {
		err := svc.Delete(ctx, used.ID)
		var cerr *application.ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Reason, "2 report")
		_, err = svc.Get(ctx, used.ID)
		assert.NoError(t, err)
	})
	t.Run("unused category is removed", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, unused.ID))
		_, err := svc.Get(ctx, unused.ID)
		var nerr *application.NotFoundError
		assert.ErrorAs(t, err, &nerr)
	})
	t.Run("missing category", func(t *testing.T) {
		err := svc.Delete(ctx, 12345)
		var nerr *application.NotFoundError
		assert.ErrorAs(t, err, &nerr)
	})
}

func TestCategoryService_ListWithCounts(t *testing.T) {
	store := apptest.NewStore()
	svc := application.NewCategoryService(store.Categories(), quietLogger())
	u := store.AddUser("Citizen", entity.RoleUser)
	a := store.AddCategory("Alpha")
	b := store.AddCategory("Beta")
	store.AddReport(u.ID, b.ID, "r")

	got, err := svc.ListWithCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	plain, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alpha", plain[0].Name)
}
