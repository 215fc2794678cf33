package shell

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/benz9527/rbstore/lib/tree"
)

type command struct {
	name    string
	aliases []string
	args    string
	help    string
	run     func(ctx context.Context, args []string) bool
}

func (sh *Shell) register() {
	sh.commands = []*command{
		{name: "insert", aliases: []string{"i", "1"}, args: "<key> [key...]", help: "Insert keys in order", run: sh.insert},
		{name: "delete", aliases: []string{"d", "2"}, args: "<key> [key...]", help: "Delete keys in order", run: sh.delete},
		{name: "search", aliases: []string{"s", "3"}, args: "<key>", help: "Search a key", run: sh.search},
		{name: "max", aliases: []string{"4"}, help: "Find the max key", run: sh.max},
		{name: "min", aliases: []string{"5"}, help: "Find the min key", run: sh.min},
		{name: "height", aliases: []string{"6"}, help: "Height of the tree", run: sh.height},
		{name: "black", aliases: []string{"7"}, help: "Black node count along the leftmost path", run: sh.blackHeight},
		{name: "inorder", aliases: []string{"8"}, help: "In-order traversal", run: sh.inorder},
		{name: "preorder", aliases: []string{"9"}, help: "Pre-order traversal", run: sh.preorder},
		{name: "postorder", aliases: []string{"10"}, help: "Post-order traversal", run: sh.postorder},
		{name: "display", aliases: []string{"11"}, help: "Display the tree sideways", run: sh.display},
		{name: "nodes", help: "Display every node with its children", run: sh.nodes},
		{name: "count", help: "Count the nodes", run: sh.count},
		{name: "destroy", help: "Release every node", run: sh.destroy},
		{name: "validate", help: "Check the red-black tree rules", run: sh.validateCmd},
		{name: "help", aliases: []string{"h", "?"}, help: "Show this help", run: sh.help},
		{name: "exit", aliases: []string{"quit", "q", "0"}, help: "Exit", run: sh.exit},
	}
	sh.lookup = make(map[string]*command, len(sh.commands)*3)
	for _, cmd := range sh.commands {
		sh.lookup[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			sh.lookup[alias] = cmd
		}
	}
}

func (sh *Shell) usage(name string) {
	cmd := sh.lookup[name]
	sh.printf("Usage: %s %s\n", cmd.name, cmd.args)
}

// parseKeys converts every token or none of them.
func (sh *Shell) parseKeys(args []string) ([]int64, bool) {
	keys := make([]int64, 0, len(args))
	for _, arg := range args {
		key, err := sh.parseKey(arg)
		if err != nil {
			sh.printf("Invalid key: %s\n", arg)
			sh.logger.Debug("invalid key", zap.String("key", arg), zap.Error(err))
			return nil, false
		}
		keys = append(keys, key)
	}
	return keys, true
}

func (sh *Shell) mutated() {
	height := sh.tree.Height()
	sh.stats.SetShape(sh.tree.Len(), height)
	if sh.validate {
		sh.checkRules()
	}
}

func (sh *Shell) checkRules() bool {
	if err := tree.Validate[int64](sh.tree); err != nil {
		sh.printf("Tree is invalid: %v\n", err)
		sh.logger.ErrorStack(err, "red-black tree rules violated", zap.Int64("len", sh.tree.Len()))
		return false
	}
	return true
}

func (sh *Shell) insert(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		sh.usage("insert")
		return false
	}
	keys, ok := sh.parseKeys(args)
	if !ok {
		return false
	}
	for _, key := range keys {
		sh.tree.Insert(key)
		sh.logger.Debug("inserted",
			zap.Int64("key", key),
			zap.Int64("len", sh.tree.Len()),
		)
	}
	sh.stats.RecordInsert(ctx, len(keys))
	sh.mutated()
	return false
}

func (sh *Shell) delete(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		sh.usage("delete")
		return false
	}
	keys, ok := sh.parseKeys(args)
	if !ok {
		return false
	}
	for _, key := range keys {
		err := sh.tree.Delete(key)
		if errors.Is(err, tree.ErrRBTreeKeyNotFound) {
			sh.printf("Node %d not found.\n", key)
			sh.logger.Info("delete absent key", zap.Int64("key", key))
			sh.stats.RecordDelete(ctx, false)
			continue
		}
		sh.logger.Debug("deleted",
			zap.Int64("key", key),
			zap.Int64("len", sh.tree.Len()),
		)
		sh.stats.RecordDelete(ctx, true)
	}
	sh.mutated()
	return false
}

func (sh *Shell) search(ctx context.Context, args []string) bool {
	if len(args) != 1 {
		sh.usage("search")
		return false
	}
	keys, ok := sh.parseKeys(args)
	if !ok {
		return false
	}
	node, err := sh.tree.Search(keys[0])
	sh.stats.RecordSearch(ctx, err == nil)
	if err != nil {
		sh.println("Data not found.")
		sh.logger.Info("search absent key", zap.Int64("key", keys[0]))
		return false
	}
	sh.printf("Data found: %s\n", sh.paint(node.Key(), node.Color()))
	return false
}

func (sh *Shell) extreme(label string, find func() (tree.RBNode[int64], error)) {
	node, err := find()
	if errors.Is(err, tree.ErrRBTreeEmpty) {
		sh.println("Tree is empty.")
		return
	}
	sh.printf("%s value: %s\n", label, sh.paint(node.Key(), node.Color()))
}

func (sh *Shell) max(context.Context, []string) bool {
	sh.extreme("Max", sh.tree.FindMax)
	return false
}

func (sh *Shell) min(context.Context, []string) bool {
	sh.extreme("Min", sh.tree.FindMin)
	return false
}

func (sh *Shell) height(context.Context, []string) bool {
	sh.printf("Height of the tree: %d\n", sh.tree.Height())
	return false
}

func (sh *Shell) blackHeight(context.Context, []string) bool {
	sh.printf("Black node count: %d\n", sh.tree.BlackHeight())
	return false
}

func (sh *Shell) inorder(context.Context, []string) bool {
	sh.traversal("In-order", sh.tree.InOrder())
	return false
}

func (sh *Shell) preorder(context.Context, []string) bool {
	sh.traversal("Pre-order", sh.tree.PreOrder())
	return false
}

func (sh *Shell) postorder(context.Context, []string) bool {
	sh.traversal("Post-order", sh.tree.PostOrder())
	return false
}

func (sh *Shell) display(context.Context, []string) bool {
	if sh.tree.Len() == 0 {
		sh.println("The tree is empty.")
		return false
	}
	sh.println("Displaying the Red-Black Tree:")
	sh.renderSideways()
	return false
}

func (sh *Shell) nodes(context.Context, []string) bool {
	if sh.tree.Len() == 0 {
		sh.println("The tree is empty.")
		return false
	}
	sh.println(sh.renderNodes())
	return false
}

func (sh *Shell) count(context.Context, []string) bool {
	sh.printf("Total nodes: %d\n", sh.tree.Len())
	return false
}

func (sh *Shell) destroy(context.Context, []string) bool {
	released := sh.tree.Len()
	sh.tree.Release()
	sh.logger.Debug("destroyed", zap.Int64("released", released))
	sh.mutated()
	sh.println("Tree destroyed.")
	return false
}

func (sh *Shell) validateCmd(context.Context, []string) bool {
	if sh.checkRules() {
		sh.println("Tree is valid.")
	}
	return false
}

func (sh *Shell) help(context.Context, []string) bool {
	sh.println(sh.renderHelp())
	return false
}

func (sh *Shell) exit(context.Context, []string) bool {
	sh.println("Exiting...")
	return true
}
