package commands

// CommandDescriptor describe un comando nativo para `help` y la API.
type CommandDescriptor struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
}

// BuiltinCommandCatalog describe los comandos que vienen incluidos en el bot.
func BuiltinCommandCatalog() []CommandDescriptor {
	return []CommandDescriptor{
		{Name: "echo", Group: GroupBuiltin, Description: "Devuelve sus argumentos tal cual."},
		{Name: "commands", Group: GroupBuiltin, Description: "Lista todos los comandos que se pueden resolver."},
		{Name: "help", Group: GroupBuiltin, Description: "Describe un comando, o los grupos registrados."},
		{Name: "usage", Group: GroupBuiltin, Description: "Muestra la firma de un comando."},
		{Name: "source", Group: GroupBuiltin, Description: "Muestra el script que define un comando."},
		{Name: "upper", Group: GroupText, Description: "Pasa el texto a mayúsculas."},
		{Name: "lower", Group: GroupText, Description: "Pasa el texto a minúsculas."},
		{Name: "reverse", Group: GroupText, Description: "Invierte el texto."},
		{Name: "rot13", Group: GroupText, Description: "Aplica ROT13."},
		{Name: "alias", Group: GroupAliasAdmin, Description: "Ayuda de los comandos de alias."},
		{Name: "add-alias", Group: GroupAliasAdmin, Description: "Crea un alias nuevo."},
		{Name: "get-alias", Group: GroupAliasAdmin, Description: "Muestra la plantilla de un alias."},
		{Name: "set-alias", Group: GroupAliasAdmin, Description: "Reemplaza la plantilla de un alias existente."},
		{Name: "del-alias", Group: GroupAliasAdmin, Description: "Borra un alias."},
		{Name: "list-alias", Group: GroupAliasAdmin, Description: "Busca alias por nombre (% y _ son comodines)."},
		{Name: "random-alias", Group: GroupAliasAdmin, Description: "Elige un alias al azar."},
		{Name: OutputFilterCommand, Group: GroupOutputFilter, Description: "Post-procesa cada respuesta antes de enviarla."},
	}
}

func describe(name string) (CommandDescriptor, bool) {
	for _, d := range BuiltinCommandCatalog() {
		if d.Name == name {
			return d, true
		}
	}
	return CommandDescriptor{}, false
}
