// Package dirs resolves the on-disk layout for a database's shard
// files:
//
//	<base>/dbs/<db>/<table>/data_<seq>_<uuid>
//	<base>/dbs/<db>/<table>/temps/temp_<n>
//	<base>/dbs/<db>/<table>/indx/indx<name>_<seq>_<uuid>
//
// <seq> is the map shard's zero-padded 8-digit creation sequence
// number. Temp shard files are numbered by their position n in the
// temp ring and carry no UUID.
//
// Paths are resolved one segment at a time, creating directories on
// demand.
package dirs
