package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"pladderBot/internal/domain"
	"pladderBot/internal/script"
)

const (
	msgAliasExists   = "Hallå farfar, den finns ju redan."
	msgAliasMissing  = "Hallå farfar, den där finns ju inte ens."
	msgAliasFailed   = "Det blir inget med det."
	msgAliasRemoved  = "Alias removed"
	msgNo            = "Nej"
	msgNoJoke        = "https://i.imgur.com/6cpffM4.jpeg"
	msgNoRandomAlias = ":)"
)

// AliasGroup expone los alias guardados como comandos normales. No tiene
// mapa propio: cada búsqueda consulta el store, así un alias nuevo se ve al
// instante.
type AliasGroup struct {
	store    domain.AliasRepository
	registry *script.Registry
	interp   script.Interpreter
	log      *zap.Logger
	chance   func() float64
}

var _ script.CommandGroup = (*AliasGroup)(nil)

// RegisterAliases instala el grupo estático de administración ("alias") y el
// grupo dinámico ("aliases"), en ese orden.
func RegisterAliases(reg *script.Registry, store domain.AliasRepository, interp script.Interpreter, logger *zap.Logger) (*AliasGroup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AliasGroup{
		store:    store,
		registry: reg,
		interp:   interp,
		log:      logger.Named("alias"),
		chance:   rand.Float64,
	}

	admin, err := reg.NewCommandGroup(GroupAliasAdmin)
	if err != nil {
		return nil, err
	}
	nameData := []script.Option{script.WithParams("name", "data"), script.WithVarargs()}
	err = registerAll(
		admin.RegisterCommand("alias", a.help),
		admin.RegisterCommand("add-alias", a.addAlias, nameData...),
		admin.RegisterCommand("get-alias", a.getAlias, script.WithParams("name")),
		admin.RegisterCommand("set-alias", a.setAlias, nameData...),
		admin.RegisterCommand("del-alias", a.delAlias, script.WithParams("name")),
		admin.RegisterCommand("list-alias", a.listAlias, script.WithParams("pattern"), script.WithOptional(1)),
		admin.RegisterCommand("random-alias", a.randomAlias, script.WithParams("pattern")),
	)
	if err != nil {
		return nil, err
	}

	if err := reg.AddCommandGroup(GroupAliases, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AliasGroup) LookupCommand(ctx context.Context, name string) (*script.CommandBinding, error) {
	alias, err := a.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if alias == nil {
		return nil, nil
	}

	template := alias.Data
	run := func(c script.Context, _ []string) (string, error) {
		out, _, err := a.interp.Interpret(c.SubContext(), "echo "+template)
		return out, err
	}
	return script.NewContextualBinding(alias.Name, run,
		script.WithSource(fmt.Sprintf("add-alias %s %s", script.Escape(alias.Name), script.Escape(template))),
	), nil
}

func (a *AliasGroup) ListCommands(ctx context.Context) ([]string, error) {
	return a.store.List(ctx, "%")
}

func (a *AliasGroup) help(context.Context, []string) (string, error) {
	functions := []string{
		"get-alias [name]",
		"del-alias [name]",
		"add-alias [name] [content]",
		"list-alias *[name]*",
		"random-alias *[name]*",
	}
	return "Functions: " + strings.Join(functions, ",") + ". " +
		"Wildcards are % and _. " +
		"Use {} when adding PladderScript to database.", nil
}

func (a *AliasGroup) bindingExists(ctx context.Context, name string) (bool, error) {
	b, err := a.registry.LookupCommand(ctx, name)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

func (a *AliasGroup) addAlias(ctx context.Context, args []string) (string, error) {
	name, data := args[0], args[1]
	exists, err := a.bindingExists(ctx, name)
	if err != nil {
		return a.failed("add-alias", name, err), nil
	}
	if exists {
		return msgAliasExists, nil
	}
	if err := a.store.Add(ctx, name, data); err != nil {
		if errors.Is(err, domain.ErrAliasExists) {
			return msgAliasExists, nil
		}
		return a.failed("add-alias", name, err), nil
	}
	return fmt.Sprintf(`"%s" added. value is: "%s"`, name, data), nil
}

func (a *AliasGroup) getAlias(ctx context.Context, args []string) (string, error) {
	alias, err := a.store.Get(ctx, args[0])
	if err != nil {
		return a.failed("get-alias", args[0], err), nil
	}
	if alias == nil {
		return a.no(), nil
	}
	return alias.Data, nil
}

// setAlias lee, borra e inserta en tres pasos separados: si falla el insert,
// el alias se pierde.
func (a *AliasGroup) setAlias(ctx context.Context, args []string) (string, error) {
	name, data := args[0], args[1]
	alias, err := a.store.Get(ctx, name)
	if err != nil {
		return a.failed("set-alias", name, err), nil
	}
	if alias == nil {
		return msgAliasMissing, nil
	}
	old := alias.Data
	if err := a.store.Delete(ctx, name); err != nil {
		return a.failed("set-alias", name, err), nil
	}
	if err := a.store.Add(ctx, name, data); err != nil {
		return a.failed("set-alias", name, err), nil
	}
	return fmt.Sprintf(`"%s" updated. value is: "%s", was: "%s"`, name, data, old), nil
}

func (a *AliasGroup) delAlias(ctx context.Context, args []string) (string, error) {
	name := args[0]
	exists, err := a.bindingExists(ctx, name)
	if err != nil {
		return a.failed("del-alias", name, err), nil
	}
	if !exists {
		return a.no(), nil
	}
	if err := a.store.Delete(ctx, name); err != nil {
		return a.failed("del-alias", name, err), nil
	}
	return msgAliasRemoved, nil
}

func (a *AliasGroup) listAlias(ctx context.Context, args []string) (string, error) {
	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
	}
	names, err := a.store.List(ctx, "%"+pattern+"%")
	if err != nil {
		return a.failed("list-alias", pattern, err), nil
	}
	if len(names) == 0 {
		return "0 Found", nil
	}
	return fmt.Sprintf("%d Found: %s", len(names), strings.Join(names, " ")), nil
}

func (a *AliasGroup) randomAlias(ctx context.Context, args []string) (string, error) {
	name, ok, err := a.store.Random(ctx, "%"+args[0]+"%")
	if err != nil {
		return a.failed("random-alias", args[0], err), nil
	}
	if !ok {
		return msgNoRandomAlias, nil
	}
	return name, nil
}

func (a *AliasGroup) no() string {
	if a.chance() > 0.95 {
		return msgNoJoke
	}
	return msgNo
}

func (a *AliasGroup) failed(op, name string, err error) string {
	a.log.Warn("alias store error", zap.String("op", op), zap.String("name", name), zap.Error(err))
	return msgAliasFailed
}
