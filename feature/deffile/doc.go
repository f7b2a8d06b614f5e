// Package deffile reads the identity and status fields out of character
// and stage definition files. It deliberately parses only what the manager
// needs (name, author, asset references, camera bounds, music); everything
// else in a def file belongs to the engine.
package deffile
