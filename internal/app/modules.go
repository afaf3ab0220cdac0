package app

import (
	"github.com/vk/attrbridge/internal/registry"
	"github.com/vk/attrbridge/modules/exprscript"
	"github.com/vk/attrbridge/modules/hclscript"
)

// coreModules is the definitive list of all script engines that are
// compiled into the attrbridge binary.
var coreModules = []registry.Module{
	&hclscript.Module{},
	&exprscript.Module{},
}
