package service

import (
	"context"
	"testing"

	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryFixture() (*InventoryService, *mockInstanceRepo) {
	games := newMockGameRepo()
	games.add(&model.Game{ID: "game:1", Name: "Catan"})
	instances := newMockInstanceRepo()
	instances.add(&model.GameInstance{ID: "game_instance:a", GameID: "game:1", CenterID: "center:1", Status: model.InstanceStatusAvailable})
	instances.add(&model.GameInstance{ID: "game_instance:r", GameID: "game:1", CenterID: "center:1", Status: model.InstanceStatusRented})
	instances.add(&model.GameInstance{ID: "game_instance:x", GameID: "game:1", CenterID: "center:2", Status: model.InstanceStatusAvailable})
	return NewInventoryService(instances, games), instances
}

func TestInventoryService_Create(t *testing.T) {
	t.Parallel()
	svc, _ := newInventoryFixture()

	inst, err := svc.Create(context.Background(), "center:1", &model.CreateInstanceRequest{GameID: "game:1", Condition: model.ConditionNew})
	require.NoError(t, err)
	assert.Equal(t, "center:1", inst.CenterID)
	assert.Equal(t, model.InstanceStatusAvailable, inst.Status)
	assert.Equal(t, model.ConditionNew, inst.Condition)

	_, err = svc.Create(context.Background(), "center:1", &model.CreateInstanceRequest{GameID: "game:404"})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestInventoryService_Update(t *testing.T) {
	t.Parallel()
	svc, _ := newInventoryFixture()
	ctx := context.Background()
	maintenance := model.InstanceStatusMaintenance

	inst, err := svc.Update(ctx, "center:1", "game_instance:a", &model.UpdateInstanceRequest{Status: &maintenance})
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusMaintenance, inst.Status)

	_, err = svc.Update(ctx, "center:1", "game_instance:r", &model.UpdateInstanceRequest{Status: &maintenance})
	assert.ErrorIs(t, err, ErrInstanceRented)

	_, err = svc.Update(ctx, "center:1", "game_instance:x", &model.UpdateInstanceRequest{Status: &maintenance})
	assert.ErrorIs(t, err, ErrInstanceOtherCenter)

	rented := model.InstanceStatusRented
	_, err = svc.Update(ctx, "center:1", "game_instance:a", &model.UpdateInstanceRequest{Status: &rented})
	var pd *model.ProblemDetails
	assert.ErrorAs(t, err, &pd, "rented is reserved to rental approval")
}

func TestInventoryService_Delete(t *testing.T) {
	t.Parallel()
	svc, instances := newInventoryFixture()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "center:1", "game_instance:r"), ErrInstanceRented)
	assert.ErrorIs(t, svc.Delete(ctx, "center:1", "game_instance:404"), ErrInstanceNotFound)

	require.NoError(t, svc.Delete(ctx, "center:1", "game_instance:a"))
	assert.NotContains(t, instances.instances, "game_instance:a")
}

func TestInventoryService_List_InvalidStatus(t *testing.T) {
	t.Parallel()
	svc, _ := newInventoryFixture()

	page, err := svc.List(context.Background(), "center:1", "", model.PageParams{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	_, err = svc.List(context.Background(), "center:1", "lost", model.PageParams{})
	var pd *model.ProblemDetails
	assert.ErrorAs(t, err, &pd)
}
