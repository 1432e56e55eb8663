/*
Package inmem implements the store Reader interface against process memory.
This implementation is meant to help get an instance of iris up and running
quickly without a need to setup a dedicated DB. Since the contents vanish
with the process, it is recommended for test environments only.
*/
package inmem
