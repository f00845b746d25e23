// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

/*
Package iconcache provides a permanent write-through cache for icon images
fetched from a remote HTTP origin.

An icon is resolved by name. If the local store already holds it, it is served
without touching the network. Otherwise it is fetched from the origin, written
atomically to the store, and served. Icons are assumed to be immutable
upstream, so a stored icon is never revalidated, replaced or removed, and
negative results are never cached.
*/
package iconcache
